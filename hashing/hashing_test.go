package hashing_test

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/blockform/blockform/hashing"
)

func TestRoundTrip(t *testing.T) {
	data1 := make([]byte, 100)
	rand.Read(data1)

	data2 := make([]byte, 100)
	rand.Read(data2)

	for _, hashingAlgo := range hashing.SupportedAlgorithms() {
		t.Run(hashingAlgo, func(t *testing.T) {
			acc, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: hashingAlgo})
			require.NoError(t, err)

			acc.Append(data1)
			hash1a := acc.FinalizeAndReset()

			// FinalizeAndReset re-arms the accumulator for the next message.
			acc.Append(data1)
			hash1b := acc.FinalizeAndReset()

			acc.Append(data2)
			hash2 := acc.FinalizeAndReset()

			require.Equal(t, hash1a, hash1b, "hashing not stable")
			require.NotEqual(t, hash1a, hash2, "different data should produce different digests")
			require.Len(t, hash1a, acc.DigestSizeBits()/8)
		})
	}
}

func TestChunkedAppendEquivalence(t *testing.T) {
	for _, hashingAlgo := range hashing.SupportedAlgorithms() {
		t.Run(hashingAlgo, func(t *testing.T) {
			whole, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: hashingAlgo})
			require.NoError(t, err)

			chunked, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: hashingAlgo})
			require.NoError(t, err)

			whole.Append([]byte("abcdef"))

			chunked.Append([]byte("a"))
			chunked.Append([]byte("bc"))
			chunked.Append([]byte("def"))

			require.Equal(t, whole.FinalizeAndReset(), chunked.FinalizeAndReset())
		})
	}
}

func TestKnownDigests(t *testing.T) {
	cases := []struct {
		algorithm string
		secret    string
		input     string
		want      string
	}{
		{"SHA256", "", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"SHA256", "", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA3-256", "", "", "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"},
		{"SHA3-256", "", "abc", "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
		{"HMAC-SHA256", "key", "The quick brown fox jumps over the lazy dog", "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"},
	}

	for _, tc := range cases {
		t.Run(tc.algorithm+"/"+tc.input, func(t *testing.T) {
			acc, err := hashing.CreateAccumulator(&hashing.Options{
				Algorithm:  tc.algorithm,
				HMACSecret: []byte(tc.secret),
			})
			require.NoError(t, err)

			acc.Append([]byte(tc.input))
			require.Equal(t, tc.want, hex.EncodeToString(acc.FinalizeAndReset()))
		})
	}
}

func TestHMACSecretChangesDigest(t *testing.T) {
	data := []byte("some payload")

	for _, hashingAlgo := range []string{"HMAC-SHA256", "HMAC-SHA3-256", "BLAKE3-256"} {
		t.Run(hashingAlgo, func(t *testing.T) {
			digestWithSecret := func(secret []byte) []byte {
				acc, err := hashing.CreateAccumulator(&hashing.Options{
					Algorithm:  hashingAlgo,
					HMACSecret: secret,
				})
				require.NoError(t, err)

				acc.Append(data)

				return acc.FinalizeAndReset()
			}

			d1a := digestWithSecret([]byte("secret-1"))
			d1b := digestWithSecret([]byte("secret-1"))
			d2 := digestWithSecret([]byte("secret-2"))

			require.Equal(t, d1a, d1b)
			require.NotEqual(t, d1a, d2)
		})
	}
}

func TestHMACEmptySecret(t *testing.T) {
	acc, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: "HMAC-SHA256"})
	require.NoError(t, err)

	acc.Append([]byte("payload"))

	ref := hmac.New(sha256.New, nil)
	ref.Write([]byte("payload"))

	require.Equal(t, ref.Sum(nil), acc.FinalizeAndReset())
}

func TestPlainAlgorithmsRejectSecret(t *testing.T) {
	for _, hashingAlgo := range []string{"SHA256", "SHA3-256"} {
		t.Run(hashingAlgo, func(t *testing.T) {
			_, err := hashing.CreateAccumulator(&hashing.Options{
				Algorithm:  hashingAlgo,
				HMACSecret: []byte("unexpected"),
			})
			require.ErrorContains(t, err, "hash function does not take an HMAC secret")
		})
	}
}

func TestBlake3Keying(t *testing.T) {
	data := []byte("keyed hashing sample")

	digestWithSecret := func(secret []byte) []byte {
		acc, err := hashing.CreateAccumulator(&hashing.Options{
			Algorithm:  "BLAKE3-256",
			HMACSecret: secret,
		})
		require.NoError(t, err)

		acc.Append(data)

		return acc.FinalizeAndReset()
	}

	referenceDigest := func(h hash.Hash) []byte {
		h.Write(data)
		return h.Sum(nil)
	}

	key32 := make([]byte, 32)
	rand.Read(key32)

	t.Run("unkeyed", func(t *testing.T) {
		require.Equal(t, referenceDigest(blake3.New()), digestWithSecret(nil))
	})

	t.Run("keyed", func(t *testing.T) {
		ref, err := blake3.NewKeyed(key32)
		require.NoError(t, err)

		require.Equal(t, referenceDigest(ref), digestWithSecret(key32))
	})

	t.Run("derived", func(t *testing.T) {
		// Secrets shorter than the native key size are stretched with a
		// fixed derivation context.
		var xKey [32]byte

		blake3.DeriveKey("blockform blake3 derived key v1", []byte("short"), xKey[:])

		ref, err := blake3.NewKeyed(xKey[:])
		require.NoError(t, err)

		derived := digestWithSecret([]byte("short"))
		require.Equal(t, referenceDigest(ref), derived)
		require.NotEqual(t, digestWithSecret(nil), derived)
	})
}

func TestFromHash(t *testing.T) {
	acc := hashing.FromHash(sha256.New())

	require.Equal(t, 256, acc.DigestSizeBits())

	acc.Append([]byte("hello"))
	want := sha256.Sum256([]byte("hello"))
	require.Equal(t, want[:], acc.FinalizeAndReset())

	acc.Append([]byte("world"))
	want = sha256.Sum256([]byte("world"))
	require.Equal(t, want[:], acc.FinalizeAndReset())
}

func TestUnknownAlgorithm(t *testing.T) {
	_, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: "NO-SUCH-HASH"})
	require.ErrorContains(t, err, "unknown hash function")
}

func TestSupportedAlgorithms(t *testing.T) {
	require.Equal(t, []string{
		"BLAKE3-256",
		"HMAC-SHA256",
		"HMAC-SHA3-256",
		"SHA256",
		"SHA3-256",
	}, hashing.SupportedAlgorithms())

	require.Contains(t, hashing.SupportedAlgorithms(), hashing.DefaultAlgorithm)
}
