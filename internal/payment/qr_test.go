package payment

import (
	"bytes"
	"image"
	_ "image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeQR(t *testing.T, png []byte) string {
	t.Helper()

	img, format, err := image.Decode(bytes.NewReader(png))
	require.NoError(t, err)
	require.Equal(t, "png", format)

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	require.NoError(t, err)

	result, err := zxingqr.NewQRCodeReader().Decode(bmp, nil)
	require.NoError(t, err)
	return result.GetText()
}

func TestEncodeQR_DecodesToPayload(t *testing.T) {
	payload, err := BuildPayload(testMerchant, 1234, decimal.RequireFromString("1618.2"))
	require.NoError(t, err)

	png, err := EncodeQR(payload, 0)
	require.NoError(t, err)

	assert.Equal(t, payload, decodeQR(t, png))
}

func TestEncodeQR_RejectsOversizedPayload(t *testing.T) {
	_, err := EncodeQR(string(bytes.Repeat([]byte("x"), 5000)), 256)
	assert.Error(t, err)
}
