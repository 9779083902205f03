package main

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

// listenToMidiIn forwards raw messages from the first MIDI input until ctx
// is done. The channel is closed when listening stops.
func listenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 1024)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v", err)
			return
		}
		defer func() {
			if err := drv.Close(); err != nil {
				log.Printf("failed to close MIDI driver: %v", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v", err)
			return
		}
		if len(ins) == 0 {
			log.Println("no MIDI input found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v", err)
			return
		}
		defer func() {
			if err := in.Close(); err != nil {
				log.Printf("failed to close MIDI IN: %v", err)
			}
		}()
		log.Printf("listening to %s", in.String())

		done := ctx.Done()
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := append([]byte(nil), data...)
			select {
			case ch <- msg:
			case <-done:
			}
		}); err != nil {
			log.Printf("failed to set listener: %v", err)
			return
		}
		defer func() {
			if err := in.StopListening(); err != nil {
				log.Printf("failed to stop listening: %v", err)
			}
		}()
		<-done
	}()
	return ch
}
