package qrstamp

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// unescapePDFString resolves the backslash escapes of a PDF literal string.
func unescapePDFString(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			// up to three octal digits
			v := int(c - '0')
			for n := 1; n < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
				i++
				v = v*8 + int(s[i]-'0')
			}
			b.WriteByte(byte(v))
		case '\r', '\n':
			// line continuation
			if c == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		default:
			b.WriteByte(c) // \( \) \\ and unknown escapes
		}
	}
	return b.String()
}

// decodeUTF16BE decodes a PDF text string that starts with the FE FF
// byte order mark.
func decodeUTF16BE(b []byte) (string, error) {
	dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("not a UTF-16BE text string: %w", err)
	}
	return string(out), nil
}

// detectImageFileType figures out whether the file at path is PNG, JPEG, etc.
func detectImageFileType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}

// getLogger returns the appropriate io.Writer to use for logging
// based on the configuration settings, defaulting to os.Stdout if nil.
func getLogger(config Config) io.Writer {
	if config.Logger == nil {
		return os.Stdout
	}
	return config.Logger
}

// warnf prints a warning when the config allows it.
func warnf(config Config, format string, args ...interface{}) {
	if !config.LogWarnings {
		return
	}
	fmt.Fprintf(getLogger(config), "Warning: "+format+"\n", args...)
}

// dumpPDFStructure prints the first byteCount bytes of the PDF and the
// optional content layers found in it.
func dumpPDFStructure(pdfData []byte, byteCount int, logger io.Writer) {
	byteCount = min(byteCount, len(pdfData))

	fmt.Fprintf(logger, "----- PDF head (%d of %d bytes) -----\n", byteCount, len(pdfData))
	fmt.Fprintln(logger, string(pdfData[:byteCount]))

	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		fmt.Fprintf(logger, "----- layer scan failed: %v -----\n", err)
		return
	}
	fmt.Fprintf(logger, "----- %d layer(s) -----\n", len(layers))
	for _, l := range layers {
		fmt.Fprintf(logger, "  %q\n", l)
	}
}
