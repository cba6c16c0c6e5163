package datapackage_test

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waczpack/waczpack/pkg/datapackage"
)

func TestNew_DefaultsTitleAndDescription(t *testing.T) {
	t.Parallel()

	dp := datapackage.New("2023-02-22T12:00:00Z", "waczpack 0.1.0", "", "", "", "", nil, nil)

	assert.Equal(t, "WACZ", dp.Title)
	assert.Empty(t, dp.Description)
	assert.Equal(t, datapackage.Version, dp.WACZVersion)
}

func TestMarshal_IsTwoSpaceIndented(t *testing.T) {
	t.Parallel()

	dp := datapackage.New("2023-02-22T12:00:00Z", "waczpack 0.1.0", "My Title", "desc", "", "", nil, []datapackage.Resource{
		{Name: "a", Path: "a", Hash: "sha256:abc", Bytes: 3},
	})

	b, err := dp.Marshal()
	require.NoError(t, err)

	var roundTrip datapackage.DataPackage

	require.NoError(t, json.Unmarshal(b, &roundTrip))
	assert.Equal(t, dp, roundTrip)
	assert.Contains(t, string(b), "\n  \"created\"")
}

func TestNewDigest_HashesExactBytes(t *testing.T) {
	t.Parallel()

	manifest := []byte(`{"a":1}`)
	digest := datapackage.NewDigest("datapackage.json", manifest)

	sum := sha256.Sum256(manifest)
	assert.Equal(t, "sha256:"+hex.EncodeToString(sum[:]), digest.Hash)
	assert.Equal(t, "datapackage.json", digest.Path)
	assert.Nil(t, digest.SignedData)
}

func TestSignedData_ValidateAnonymous(t *testing.T) {
	t.Parallel()

	sd := datapackage.SignedData{
		Hash:      "sha256:" + hexFill(),
		Created:   "2023-02-22T12:00:00Z",
		Software:  "authsign 1.0",
		Signature: "c2lnbmF0dXJl",
		PublicKey: "cHVibGlja2V5",
	}

	assert.NoError(t, sd.Validate())
}

func TestSignedData_ValidateDomainIdentified(t *testing.T) {
	t.Parallel()

	sd := datapackage.SignedData{
		Hash:          "sha256:" + hexFill(),
		Created:       "2023-02-22T12:00:00Z",
		Software:      "authsign 1.0",
		Signature:     "c2lnbmF0dXJl",
		Domain:        "example.com",
		DomainCert:    "LS0tLS1CRUdJTg==",
		TimeSignature: "dGltZXNpZw==",
		TimestampCert: "LS0tLS1CRUdJTg==",
	}

	assert.NoError(t, sd.Validate())
}

func TestSignedData_ValidateRejectsNeitherVariant(t *testing.T) {
	t.Parallel()

	sd := datapackage.SignedData{
		Hash:      "sha256:" + hexFill(),
		Created:   "2023-02-22T12:00:00Z",
		Software:  "authsign 1.0",
		Signature: "c2lnbmF0dXJl",
	}

	assert.ErrorIs(t, sd.Validate(), datapackage.ErrSignatureInvalid)
}

func TestSignedData_ValidateRejectsMixedVariants(t *testing.T) {
	t.Parallel()

	sd := datapackage.SignedData{
		Hash:      "sha256:" + hexFill(),
		Created:   "2023-02-22T12:00:00Z",
		Software:  "authsign 1.0",
		Signature: "c2lnbmF0dXJl",
		PublicKey: "cHVibGlja2V5",
		Domain:    "example.com",
	}

	assert.ErrorIs(t, sd.Validate(), datapackage.ErrSignatureInvalid)
}

func hexFill() string {
	sum := sha256.Sum256([]byte("x"))

	return hex.EncodeToString(sum[:])
}
