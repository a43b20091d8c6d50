package card

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Keyword is the tEXt keyword chat front ends read the card from.
const Keyword = "chara"

// Size of the placeholder image used when no picture is supplied.
const (
	BlankWidth  = 400
	BlankHeight = 600
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ErrNoCard is returned by Extract when the PNG carries no chara chunk.
var ErrNoCard = errors.New("png has no chara chunk")

// Embed writes payload into src as a tEXt chunk keyed "chara". PNG input
// keeps its original pixel data; JPEG, GIF, WebP and BMP are re-encoded to
// PNG first. An existing chara chunk is replaced.
func Embed(src []byte, payload string) ([]byte, error) {
	if !bytes.HasPrefix(src, pngSignature) {
		img, format, err := image.Decode(bytes.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("re-encode %s as png: %w", format, err)
		}
		src = buf.Bytes()
	}

	chunks, err := readChunks(src)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(pngSignature)
	for _, c := range chunks {
		if c.typ == "tEXt" && isCharaText(c.data) {
			continue
		}
		if c.typ == "IEND" {
			writeChunk(&out, "tEXt", textData(Keyword, payload))
		}
		writeChunk(&out, c.typ, c.data)
	}
	return out.Bytes(), nil
}

// Extract returns the chara payload of a PNG.
func Extract(src []byte) (string, error) {
	chunks, err := readChunks(src)
	if err != nil {
		return "", err
	}
	for _, c := range chunks {
		if c.typ == "tEXt" && isCharaText(c.data) {
			return string(c.data[len(Keyword)+1:]), nil
		}
	}
	return "", ErrNoCard
}

// Blank returns a white PNG of the placeholder size.
func Blank() []byte {
	img := image.NewRGBA(image.Rect(0, 0, BlankWidth, BlankHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	// Encoding an in-memory RGBA into a bytes.Buffer cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

type chunk struct {
	typ  string
	data []byte
}

// readChunks splits a PNG into chunks and verifies each CRC.
func readChunks(src []byte) ([]chunk, error) {
	if !bytes.HasPrefix(src, pngSignature) {
		return nil, errors.New("not a png")
	}
	r := bytes.NewReader(src[len(pngSignature):])
	var chunks []chunk
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		n := binary.BigEndian.Uint32(hdr[:4])
		if int64(n) > int64(r.Len()) {
			return nil, fmt.Errorf("chunk %q length %d exceeds file", hdr[4:], n)
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("read chunk data: %w", err)
		}
		var sum [4]byte
		if _, err := io.ReadFull(r, sum[:]); err != nil {
			return nil, fmt.Errorf("read chunk crc: %w", err)
		}
		crc := crc32.NewIEEE()
		crc.Write(hdr[4:])
		crc.Write(data)
		if crc.Sum32() != binary.BigEndian.Uint32(sum[:]) {
			return nil, fmt.Errorf("chunk %q: crc mismatch", hdr[4:])
		}

		c := chunk{typ: string(hdr[4:]), data: data}
		chunks = append(chunks, c)
		if c.typ == "IEND" {
			return chunks, nil
		}
	}
}

func writeChunk(w *bytes.Buffer, typ string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	w.Write(n[:])

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	w.WriteString(typ)
	w.Write(data)

	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}

// textData lays out a tEXt chunk body: keyword, NUL, Latin-1 text. The
// payload is base64 so it is always plain ASCII.
func textData(keyword, text string) []byte {
	b := make([]byte, 0, len(keyword)+1+len(text))
	b = append(b, keyword...)
	b = append(b, 0)
	return append(b, text...)
}

func isCharaText(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Keyword+"\x00"))
}
