package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/blockform/blockform/pipe"
	"github.com/blockform/blockform/transform"
)

type commandDecode struct {
	path               string
	preserveWhitespace bool

	svc appServices
}

func (c *commandDecode) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("decode", "Decode a Base64 file or standard input to raw bytes on standard output.").Alias("dec")
	cmd.Arg("path", "File to decode ('-' or omitted means standard input)").StringVar(&c.path)
	cmd.Flag("preserve-whitespace", "Treat whitespace as part of the input instead of skipping it").BoolVar(&c.preserveWhitespace)
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
}

func (c *commandDecode) run(ctx context.Context) error {
	src, err := c.svc.openInputStream(c.path)
	if err != nil {
		return err
	}

	defer src.Close() //nolint:errcheck

	mode := transform.IgnoreWhitespace
	if c.preserveWhitespace {
		mode = transform.PreserveWhitespace
	}

	dec := transform.NewBase64Decoder(mode)
	defer dec.Close() //nolint:errcheck

	if _, err := pipe.Copy(ctx, c.svc.stdout(), src, dec); err != nil {
		return errors.Wrap(err, "error decoding")
	}

	return nil
}
