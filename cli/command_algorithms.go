package cli

import (
	"context"

	"github.com/blockform/blockform/hashing"
	"github.com/blockform/blockform/transform"
)

type commandAlgorithms struct {
	out textOutput
}

func (c *commandAlgorithms) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("algorithms", "List registered codecs and hash algorithms.").Alias("algos")
	cmd.Action(svc.baseActionWithContext(c.run))

	c.out.setup(svc)
}

func (c *commandAlgorithms) run(ctx context.Context) error {
	c.out.printStdout("%v\n", noticeColor.Sprint("Codecs:"))

	for _, name := range transform.SupportedCodecs() {
		c.out.printStdout("  %-16v %v\n", name, transform.CodecDescription(name))
	}

	c.out.printStdout("\n%v\n", noticeColor.Sprint("Hash algorithms:"))

	for _, name := range hashing.SupportedAlgorithms() {
		c.out.printStdout("  %v\n", name)
	}

	return nil
}
