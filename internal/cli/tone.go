// ABOUTME: tone command
// ABOUTME: Writes a reference sine tone to a WAV file
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/econner/cinesnap/pkg/audio"
	"github.com/econner/cinesnap/pkg/audio/decode"
	"github.com/econner/cinesnap/pkg/audio/encode"
)

func newToneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tone <out.wav>",
		Short: "Write a reference sine tone for checking speed changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, _ := cmd.Flags().GetFloat64("seconds")
			freq, _ := cmd.Flags().GetFloat64("freq")
			rate, _ := cmd.Flags().GetInt("rate")
			channels, _ := cmd.Flags().GetInt("channels")

			if seconds <= 0 {
				return fmt.Errorf("--seconds must be positive, got %v", seconds)
			}

			format := audio.Format{Codec: audio.CodecPCM, SampleRate: rate, Channels: channels, BitDepth: 16}
			r, err := decode.NewToneReader(format, freq, int64(seconds*float64(rate)), 0)
			if err != nil {
				return err
			}
			return writeWAVFile(cmd, args[0], r)
		},
	}

	cmd.Flags().Float64("seconds", 10, "Tone length in seconds")
	cmd.Flags().Float64("freq", 440, "Tone frequency in Hz")
	cmd.Flags().Int("rate", 44100, "Sample rate")
	cmd.Flags().Int("channels", 2, "Channel count")
	return cmd
}

func writeWAVFile(cmd *cobra.Command, path string, r decode.Reader) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	w, err := encode.NewWAVWriter(f, r.Format())
	if err != nil {
		return err
	}
	for {
		buf, err := r.Read(cmd.Context())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := w.Write(buf); err != nil {
			return err
		}
	}
	if err := w.Finalize(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %v)\n", path, r.Format(), r.Format().Duration(w.Frames()))
	return nil
}
