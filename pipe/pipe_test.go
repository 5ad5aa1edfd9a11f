package pipe

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/blockform/blockform/hashing"
	"github.com/blockform/blockform/internal/bufpool"
	"github.com/blockform/blockform/internal/releasable"
	"github.com/blockform/blockform/transform"
)

func TestOutputSizeFor(t *testing.T) {
	cases := []struct {
		n, ibs, obs int
		want        int
	}{
		{0, 3, 4, 0},
		{1, 3, 4, 4},
		{3, 3, 4, 4},
		{4, 3, 4, 8},
		{6, 3, 4, 8},
		{5, 1, 1, 5},
		{65536, 1, 3, 196608},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, outputSizeFor(tc.n, tc.ibs, tc.obs), "outputSizeFor(%v,%v,%v)", tc.n, tc.ibs, tc.obs)
	}
}

func TestStagingSize(t *testing.T) {
	require.Equal(t, chunkSize, stagingSize(1))
	require.Equal(t, chunkSize, stagingSize(3))
	require.Equal(t, chunkSize+5, stagingSize(chunkSize+5))
}

func mustNewCodec(t *testing.T, name transform.Name) transform.Transform {
	t.Helper()

	c, err := transform.NewCodec(name)
	require.NoError(t, err)

	return c
}

func TestCopyEncode(t *testing.T) {
	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst bytes.Buffer

	written, err := Copy(ctx, &dst, strings.NewReader("foobar"), enc)
	require.NoError(t, err)
	require.EqualValues(t, 8, written)
	require.Equal(t, "Zm9vYmFy", dst.String())
}

func TestCopyEncodeOneByteReads(t *testing.T) {
	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst bytes.Buffer

	written, err := Copy(ctx, &dst, iotest.OneByteReader(strings.NewReader("hello world!")), enc)
	require.NoError(t, err)
	require.EqualValues(t, 16, written)
	require.Equal(t, "aGVsbG8gd29ybGQh", dst.String())
}

func TestCopyDecode(t *testing.T) {
	ctx := context.Background()

	dec := transform.NewBase64Decoder(transform.IgnoreWhitespace)
	defer dec.Close()

	var dst bytes.Buffer

	written, err := Copy(ctx, &dst, strings.NewReader("Zm9v\nYmFy\n"), dec)
	require.NoError(t, err)
	require.EqualValues(t, 6, written)
	require.Equal(t, "foobar", dst.String())
}

func TestCopyEmptySource(t *testing.T) {
	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst bytes.Buffer

	written, err := Copy(ctx, &dst, strings.NewReader(""), enc)
	require.NoError(t, err)
	require.Zero(t, written)
	require.Empty(t, dst.Bytes())
}

func TestCopyRoundTrip(t *testing.T) {
	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	dec := mustNewCodec(t, transform.Base64DecodeCodec)
	defer dec.Close()

	for _, size := range []int{0, 1, 2, 3, 4, 5, 255, 256, 1000, 100000} {
		data := make([]byte, size)
		rand.Read(data)

		var encoded bytes.Buffer

		_, err := Copy(ctx, &encoded, bytes.NewReader(data), enc)
		require.NoError(t, err)

		var decoded bytes.Buffer

		written, err := Copy(ctx, &decoded, &encoded, dec)
		require.NoError(t, err)
		require.EqualValues(t, size, written)
		require.Equal(t, data, decoded.Bytes())
	}
}

func TestCopyReusesTransform(t *testing.T) {
	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst1 bytes.Buffer

	_, err := Copy(ctx, &dst1, strings.NewReader("foo"), enc)
	require.NoError(t, err)
	require.Equal(t, "Zm9v", dst1.String())

	// the transform is finalized but left open, so the same instance
	// handles another message
	var dst2 bytes.Buffer

	_, err = Copy(ctx, &dst2, strings.NewReader("ba"), enc)
	require.NoError(t, err)
	require.Equal(t, "YmE=", dst2.String())
}

func TestCopyHashDelegate(t *testing.T) {
	ctx := context.Background()

	acc, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: "SHA256"})
	require.NoError(t, err)

	hd := transform.NewHashDelegate(acc)
	defer hd.Close()

	written, err := Copy(ctx, io.Discard, strings.NewReader("hello world"), hd)
	require.NoError(t, err)
	require.EqualValues(t, 11, written)

	digest, err := hd.Digest()
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		hex.EncodeToString(digest))
}

func TestCopyCipherRoundTrip(t *testing.T) {
	ctx := context.Background()

	newStream := func() cipher.Stream {
		key := bytes.Repeat([]byte{5}, 32)
		iv := bytes.Repeat([]byte{6}, aes.BlockSize)

		b, err := aes.NewCipher(key)
		require.NoError(t, err)

		return cipher.NewCTR(b, iv)
	}

	data := make([]byte, 1000)
	rand.Read(data)

	encrypt := transform.NewCipherStream(newStream())
	defer encrypt.Close()

	var ciphertext bytes.Buffer

	_, err := Copy(ctx, &ciphertext, bytes.NewReader(data), encrypt)
	require.NoError(t, err)
	require.NotEqual(t, data, ciphertext.Bytes())

	decrypt := transform.NewCipherStream(newStream())
	defer decrypt.Close()

	var plaintext bytes.Buffer

	_, err = Copy(ctx, &plaintext, &ciphertext, decrypt)
	require.NoError(t, err)
	require.Equal(t, data, plaintext.Bytes())
}

func TestCopyReadError(t *testing.T) {
	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst bytes.Buffer

	// TimeoutReader delivers the first read and then fails
	written, err := Copy(ctx, &dst, iotest.TimeoutReader(strings.NewReader("abcdef")), enc)
	require.ErrorIs(t, err, iotest.ErrTimeout)
	require.ErrorContains(t, err, "error reading")
	require.EqualValues(t, 8, written)
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestCopyWriteError(t *testing.T) {
	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	boom := errors.New("disk full")

	written, err := Copy(ctx, failingWriter{boom}, strings.NewReader("foobar"), enc)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "error writing")
	require.Zero(t, written)
}

func TestCopyMalformedInput(t *testing.T) {
	ctx := context.Background()

	dec := mustNewCodec(t, transform.Base64DecodeCodec)
	defer dec.Close()

	_, err := Copy(ctx, io.Discard, strings.NewReader("####"), dec)
	require.ErrorIs(t, err, transform.ErrMalformedInput)
	require.ErrorContains(t, err, "error processing chunk")
}

func TestCopyFinalizeError(t *testing.T) {
	ctx := context.Background()

	key := bytes.Repeat([]byte{7}, 32)
	iv := bytes.Repeat([]byte{8}, aes.BlockSize)

	b, err := aes.NewCipher(key)
	require.NoError(t, err)

	enc := transform.NewCipherStream(cipher.NewCTR(b, iv))
	defer enc.Close()

	// the first message spends the one-shot transform.
	_, err = Copy(ctx, io.Discard, strings.NewReader("hello"), enc)
	require.NoError(t, err)

	// the next message fails at finalization even when it carries no data.
	_, err = Copy(ctx, io.Discard, strings.NewReader(""), enc)
	require.ErrorIs(t, err, transform.ErrAlreadyFinalized)
	require.ErrorContains(t, err, "error finalizing transform")
}

func TestCopyPreserveWhitespaceError(t *testing.T) {
	ctx := context.Background()

	dec := transform.NewBase64Decoder(transform.PreserveWhitespace)
	defer dec.Close()

	_, err := Copy(ctx, io.Discard, strings.NewReader("Zm\n9v"), dec)
	require.ErrorIs(t, err, transform.ErrMalformedInput)
}

func TestReaderContract(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	r := NewReader(strings.NewReader("foobar"), enc)
	defer r.Close()

	require.NoError(t, iotest.TestReader(r, []byte("Zm9vYmFy")))
}

func TestReaderDecodeSmallBuffers(t *testing.T) {
	dec := transform.NewBase64Decoder(transform.IgnoreWhitespace)
	defer dec.Close()

	r := NewReader(iotest.OneByteReader(strings.NewReader("aGVs\nbG8g\nd29y\nbGQh\n")), dec)
	defer r.Close()

	var got []byte

	p := make([]byte, 3)

	for {
		n, err := r.Read(p)
		got = append(got, p[:n]...)

		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)
	}

	require.Equal(t, "hello world!", string(got))
}

func TestReaderEmptySource(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	r := NewReader(strings.NewReader(""), enc)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestReaderPropagatesError(t *testing.T) {
	boom := errors.New("stream broken")

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	r := NewReader(iotest.ErrReader(boom), enc)
	defer r.Close()

	_, err := io.ReadAll(r)
	require.ErrorIs(t, err, boom)

	// the error is sticky
	_, err = r.Read(make([]byte, 1))
	require.ErrorIs(t, err, boom)
}

func TestReaderMalformedInput(t *testing.T) {
	dec := mustNewCodec(t, transform.Base64DecodeCodec)
	defer dec.Close()

	r := NewReader(strings.NewReader("!!!!"), dec)
	defer r.Close()

	_, err := io.ReadAll(r)
	require.ErrorIs(t, err, transform.ErrMalformedInput)
}

func TestReaderClose(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	r := NewReader(strings.NewReader("foo"), enc)

	require.NoError(t, r.Close())
	require.ErrorContains(t, r.Close(), "already closed")

	_, err := r.Read(make([]byte, 1))
	require.ErrorContains(t, err, "reader is closed")
}

func TestWriterEncodeSplitWrites(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst bytes.Buffer

	w := NewWriter(&dst, enc)

	for _, piece := range []string{"f", "oob", "a", "r"} {
		n, err := w.Write([]byte(piece))
		require.NoError(t, err)
		require.Equal(t, len(piece), n)
	}

	require.NoError(t, w.Close())
	require.Equal(t, "Zm9vYmFy", dst.String())
}

func TestWriterFinalizesOnClose(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst bytes.Buffer

	w := NewWriter(&dst, enc)

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)

	// the carried partial block is encoded with padding on Close
	require.NoError(t, w.Close())
	require.Equal(t, "aGVsbG8=", dst.String())
}

func TestWriterLargeRoundTrip(t *testing.T) {
	data := make([]byte, 200000)
	rand.Read(data)

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var encoded bytes.Buffer

	ew := NewWriter(&encoded, enc)

	_, err := ew.Write(data)
	require.NoError(t, err)
	require.NoError(t, ew.Close())

	dec := mustNewCodec(t, transform.Base64DecodeCodec)
	defer dec.Close()

	var decoded bytes.Buffer

	dw := NewWriter(&decoded, dec)

	_, err = dw.Write(encoded.Bytes())
	require.NoError(t, err)
	require.NoError(t, dw.Close())

	require.Equal(t, data, decoded.Bytes())
}

func TestWriterWriteError(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	boom := errors.New("disk full")

	w := NewWriter(failingWriter{boom}, enc)

	n, err := w.Write([]byte("foobar"))
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "error writing")
	require.Zero(t, n)

	// nothing is carried, so Close has no final output to flush
	require.NoError(t, w.Close())
}

func TestWriterCloseFlushError(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	boom := errors.New("disk full")

	w := NewWriter(failingWriter{boom}, enc)

	// two bytes stay in the carry buffer, so nothing is written yet
	_, err := w.Write([]byte("fo"))
	require.NoError(t, err)

	err = w.Close()
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "error writing final output")
}

func TestWriterClose(t *testing.T) {
	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	var dst bytes.Buffer

	w := NewWriter(&dst, enc)

	require.NoError(t, w.Close())
	require.ErrorContains(t, w.Close(), "already closed")

	_, err := w.Write([]byte("x"))
	require.ErrorContains(t, err, "writer is closed")
}

func TestLeaseHygiene(t *testing.T) {
	releasable.EnableTracking(bufpool.LeaseTrackingKind)
	defer releasable.DisableTracking(bufpool.LeaseTrackingKind)

	ctx := context.Background()

	enc := mustNewCodec(t, transform.Base64EncodeCodec)
	defer enc.Close()

	_, err := Copy(ctx, io.Discard, strings.NewReader("foobar"), enc)
	require.NoError(t, err)
	require.NoError(t, releasable.Verify())

	r := NewReader(strings.NewReader("foobar"), enc)

	_, err = io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, releasable.Verify())

	w := NewWriter(io.Discard, enc)

	_, err = w.Write([]byte("foobar"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, releasable.Verify())
}
