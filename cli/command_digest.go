package cli

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/blockform/blockform/hashing"
	"github.com/blockform/blockform/pipe"
	"github.com/blockform/blockform/transform"
)

type commandDigest struct {
	paths         []string
	hashAlgorithm string
	hmacSecret    string

	svc appServices
	out textOutput
}

func (c *commandDigest) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("digest", "Compute a digest of files or standard input.")
	cmd.Arg("path", "Files to digest ('-' or omitted means standard input)").StringsVar(&c.paths)
	cmd.Flag("hash", "Hash algorithm").Default(hashing.DefaultAlgorithm).EnumVar(&c.hashAlgorithm, hashing.SupportedAlgorithms()...)
	cmd.Flag("hmac-secret", "Secret for keyed hash algorithms").Envar(svc.EnvName("BLOCKFORM_HMAC_SECRET")).StringVar(&c.hmacSecret)
	cmd.Action(svc.baseActionWithContext(c.run))

	c.svc = svc
	c.out.setup(svc)
}

func (c *commandDigest) run(ctx context.Context) error {
	paths := c.paths
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	for _, path := range paths {
		if err := c.digestSingle(ctx, path); err != nil {
			return err
		}
	}

	return nil
}

func (c *commandDigest) digestSingle(ctx context.Context, path string) error {
	src, err := c.svc.openInputStream(path)
	if err != nil {
		return err
	}

	defer src.Close() //nolint:errcheck

	acc, err := hashing.CreateAccumulator(&hashing.Options{
		Algorithm:  c.hashAlgorithm,
		HMACSecret: []byte(c.hmacSecret),
	})
	if err != nil {
		return errors.Wrap(err, "unable to create hash accumulator")
	}

	hd := transform.NewHashDelegate(acc)
	defer hd.Close() //nolint:errcheck

	if _, err := pipe.Copy(ctx, io.Discard, src, hd); err != nil {
		return errors.Wrapf(err, "error hashing %v", path)
	}

	digest, err := hd.Digest()
	if err != nil {
		return err
	}

	name := path
	if name == "" {
		name = "-"
	}

	c.out.printStdout("%x  %v\n", digest, name)

	return nil
}
