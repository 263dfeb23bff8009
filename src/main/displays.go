package main

import (
	"log"

	"better-shot/src/screenshot"
)

func logDisplays() {
	d := screenshot.System()
	n := d.NumActiveDisplays()
	log.Printf("MONITOR: Detected %d monitors", n)
	for i := 0; i < n; i++ {
		b := d.GetDisplayBounds(i)
		log.Printf("MONITOR: #%d x:%d y:%d w:%d h:%d", i, b.Min.X, b.Min.Y, b.Dx(), b.Dy())
	}
}
