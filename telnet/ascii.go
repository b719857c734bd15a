package telnet

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// ASCII is the NVT character set: 7-bit US-ASCII. Decoding maps every byte
// above 127 to the SUB control character and encoding maps every rune
// outside ASCII to it, so text that went through a binary-mode session can
// still be printed safely.
var ASCII encoding.Encoding = nvtASCII{}

const asciiSub = '\x1A'

type nvtASCII struct{}

func (nvtASCII) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: asciiDecoder{}}
}

func (nvtASCII) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: asciiEncoder{}}
}

func (nvtASCII) String() string { return "US-ASCII" }

type asciiDecoder struct{ transform.NopResetter }

func (asciiDecoder) Transform(dst, src []byte, _ bool) (nDst, nSrc int, err error) {
	for _, c := range src {
		if nDst >= len(dst) {
			err = transform.ErrShortDst
			break
		}
		if c > 127 {
			c = asciiSub
		}
		dst[nDst] = c
		nDst++
		nSrc++
	}
	return
}

type asciiEncoder struct{ transform.NopResetter }

func (asciiEncoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if nDst >= len(dst) {
			err = transform.ErrShortDst
			break
		}
		c := src[nSrc]
		if c < 128 {
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}
		// swallow the whole UTF-8 sequence, emitting a single SUB
		size := utf8SeqLen(c)
		if nSrc+size > len(src) && !atEOF {
			err = transform.ErrShortSrc
			break
		}
		if nSrc+size > len(src) {
			size = len(src) - nSrc
		}
		dst[nDst] = asciiSub
		nDst++
		nSrc += size
	}
	return
}

func utf8SeqLen(c byte) int {
	switch {
	case c&0xE0 == 0xC0:
		return 2
	case c&0xF0 == 0xE0:
		return 3
	case c&0xF8 == 0xF0:
		return 4
	}
	return 1
}
