// Package textio reads Markdown input for the CLI: it detects the byte
// encoding, converts to UTF-8 and writes repaired files back with a backup.
package textio

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"markdown-repair/internal/types"
)

// Encoding names reported by Detect and Decode.
const (
	EncodingUTF8    = "UTF-8"
	EncodingUTF8BOM = "UTF-8-BOM"
	EncodingUTF16LE = "UTF-16LE"
	EncodingUTF16BE = "UTF-16BE"
	EncodingGBK     = "GBK"
	EncodingUnknown = "UNKNOWN"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect guesses the encoding of data from its BOM, falling back to a UTF-8
// validity check and then a GBK decode.
func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8BOM
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE
	case utf8.Valid(data):
		return EncodingUTF8
	case isValidGBK(data):
		return EncodingGBK
	}
	return EncodingUnknown
}

func isValidGBK(data []byte) bool {
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(data)
	if err != nil {
		return false
	}
	return utf8.Valid(decoded) && !bytes.ContainsRune(decoded, utf8.RuneError)
}

// Decode converts data to a UTF-8 string and reports the encoding it found.
// Input in no supported encoding is an INVALID_INPUT error.
func Decode(data []byte) (string, string, error) {
	enc := Detect(data)
	var (
		decoded []byte
		err     error
	)
	switch enc {
	case EncodingUTF8:
		decoded = data
	case EncodingUTF8BOM:
		decoded = data[len(bomUTF8):]
	case EncodingUTF16LE:
		decoded, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case EncodingUTF16BE:
		decoded, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	case EncodingGBK:
		decoded, err = simplifiedchinese.GBK.NewDecoder().Bytes(data)
	default:
		return "", enc, types.NewAppError(types.ErrInvalidInput, "input is not UTF-8, UTF-16 or GBK text", nil)
	}
	if err != nil {
		return "", enc, types.NewAppErrorWithDetails(types.ErrInvalidInput, "failed to decode input", enc, err)
	}
	return string(decoded), enc, nil
}

// ReadFile reads and decodes path. The path "-" reads standard input.
func ReadFile(path string) (string, string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", types.NewAppErrorWithDetails(types.ErrFileNotFound, "input file not found", path, err)
		}
		return "", "", types.NewAppErrorWithDetails(types.ErrInvalidInput, "failed to read input", path, err)
	}
	return Decode(data)
}

// Encode converts UTF-8 text back into enc so a rewritten file keeps its
// original encoding. Unknown encodings are written as plain UTF-8.
func Encode(text, enc string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch enc {
	case EncodingUTF8BOM:
		out = append(append([]byte{}, bomUTF8...), text...)
	case EncodingUTF16LE:
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	case EncodingUTF16BE:
		out, err = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	case EncodingGBK:
		out, err = simplifiedchinese.GBK.NewEncoder().Bytes([]byte(text))
	default:
		out = []byte(text)
	}
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrInvalidInput, "failed to encode output", enc, err)
	}
	return out, nil
}
