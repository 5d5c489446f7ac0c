package render

import (
	"image/color"
	"time"
)

type Renderer interface {
	Init() error
	Deinit() error
	Size() (cols, rows uint16, err error)
	AddDecoration(col, row uint16, content string, frames int)
	RenderLoop(
		delay, framePeriod time.Duration,
		render func(startTime time.Time, duration time.Duration) bool,
		endRender func(renderDuration time.Duration),
	)
	Fill(row, column uint16, message string)
	FillColor(row, column uint16, c color.RGBA, message string)
}
