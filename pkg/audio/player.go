package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// Global audio context singleton. Oto allows one context per process,
// so the format of the first sound played wins.
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxOnce sync.Once
	globalAudioCtxErr  error
)

var errAudioNotReady = errors.New("audio context not ready")

// Player loops a sound until stopped
type Player struct {
	stopChan chan struct{}
	done     chan struct{}
	once     sync.Once
	log      *zap.Logger
}

// initAudioContext initializes the global audio context once
func initAudioContext(format *wavFormat, log *zap.Logger) error {
	globalAudioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			globalAudioCtxErr = fmt.Errorf("init audio context: %w", err)
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan

		globalAudioCtx = ctx
		log.Info("audio context initialized", zap.Int("sample_rate", format.SampleRate))
	})
	if globalAudioCtxErr != nil {
		return globalAudioCtxErr
	}
	if globalAudioCtx == nil {
		return errAudioNotReady
	}
	return nil
}

// Play starts looping the WAV data and returns the Player controlling it
func Play(wavData []byte, log *zap.Logger) (*Player, error) {
	format, audioData, err := parseWAV(wavData)
	if err != nil {
		return nil, fmt.Errorf("parse wav: %w", err)
	}
	if err := initAudioContext(format, log); err != nil {
		return nil, err
	}

	p := &Player{
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		log:      log,
	}
	go p.playLoop(audioData)
	return p, nil
}

func (p *Player) playLoop(audioData []byte) {
	defer close(p.done)
	for {
		// Create a new player for each loop iteration
		player := globalAudioCtx.NewPlayer(bytes.NewReader(audioData))
		player.Play()

		stopped := false
		for player.IsPlaying() && !stopped {
			select {
			case <-p.stopChan:
				player.Pause()
				stopped = true
			case <-time.After(10 * time.Millisecond):
			}
		}

		if err := player.Close(); err != nil {
			p.log.Warn("close audio player failed", zap.Error(err))
		}
		if stopped {
			return
		}

		// Check if stop was requested between loops
		select {
		case <-p.stopChan:
			return
		default:
		}
	}
}

// Stop ends playback and waits until the device player is released
func (p *Player) Stop() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.stopChan) })
	<-p.done
}
