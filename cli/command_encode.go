package cli

import (
	"context"

	"github.com/pkg/errors"

	"github.com/blockform/blockform/pipe"
	"github.com/blockform/blockform/transform"
)

type commandEncode struct {
	path string

	svc appServices
}

func (c *commandEncode) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("encode", "Encode a file or standard input to Base64 on standard output.").Alias("enc")
	cmd.Arg("path", "File to encode ('-' or omitted means standard input)").StringVar(&c.path)
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
}

func (c *commandEncode) run(ctx context.Context) error {
	src, err := c.svc.openInputStream(c.path)
	if err != nil {
		return err
	}

	defer src.Close() //nolint:errcheck

	enc, err := transform.NewCodec(transform.Base64EncodeCodec)
	if err != nil {
		return err
	}

	defer enc.Close() //nolint:errcheck

	if _, err := pipe.Copy(ctx, c.svc.stdout(), src, enc); err != nil {
		return errors.Wrap(err, "error encoding")
	}

	return nil
}
