package main

import (
	"bytes"
	"log"

	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

const hudFontSize = 13

var (
	fontSource *text.GoTextFaceSource
	hudFace    text.Face
)

func initFont() {
	if hudFace != nil {
		return
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Fatalf("failed to parse font: %v", err)
	}
	fontSource = src
	hudFace = &text.GoTextFace{
		Source: src,
		Size:   hudFontSize,
	}
}
