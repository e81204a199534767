//go:build portaudio
// +build portaudio

package audio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gordonklaus/portaudio"
)

// MicrophoneSource captures push-to-talk commands: press Enter, speak,
// and the capture ends after the configured duration or a trailing
// second of silence.
type MicrophoneSource struct {
	stream     *portaudio.Stream
	sampleRate int
	duration   time.Duration
	logger     *slog.Logger
	buffer     []int16
	trigger    *bufio.Scanner
}

func NewMicrophoneSource(sampleRate int, duration time.Duration, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		duration:   duration,
		logger:     logger,
		trigger:    bufio.NewScanner(os.Stdin),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	framesPerBuffer := 1024
	m.buffer = make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), framesPerBuffer, m.buffer)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	m.stream = stream

	m.logger.Info("microphone ready", "sampleRate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Close()
	}
	portaudio.Terminate()
	return nil
}

func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	fmt.Println("Press Enter to speak a command...")
	if !m.trigger.Scan() {
		return nil, fmt.Errorf("stdin closed")
	}

	if err := m.stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer m.stream.Stop()

	m.logger.Info("recording", "duration", m.duration)

	maxSamples := int(m.duration.Seconds() * float64(m.sampleRate))
	silenceThreshold := int16(500)
	silenceSamples := 0
	// A trailing second of silence ends the capture early.
	maxSilenceSamples := m.sampleRate

	samples := make([]int16, 0, maxSamples)

	for len(samples) < maxSamples {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}
		samples = append(samples, m.buffer...)

		isSilent := true
		for _, sample := range m.buffer {
			if sample > silenceThreshold || sample < -silenceThreshold {
				isSilent = false
				break
			}
		}

		if isSilent {
			silenceSamples += len(m.buffer)
		} else {
			silenceSamples = 0
		}

		if silenceSamples > maxSilenceSamples && len(samples) > m.sampleRate {
			break
		}
	}

	return samplesToWav(samples, m.sampleRate)
}

func samplesToWav(samples []int16, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, int32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, int32(16))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int16(1))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, int32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, int16(2))
	binary.Write(&buf, binary.LittleEndian, int16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, int32(dataSize))
	for _, sample := range samples {
		binary.Write(&buf, binary.LittleEndian, sample)
	}

	return buf.Bytes(), nil
}
