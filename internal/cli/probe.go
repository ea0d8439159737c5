// ABOUTME: probe and preview commands
// ABOUTME: Lists a container's audio tracks and plays one through the sound card
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/econner/cinesnap/pkg/audio/output"
	"github.com/econner/cinesnap/pkg/media"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <input>",
		Short: "List the audio tracks of a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			lib := media.NewLibrary(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
			c, err := lib.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", filepath.Base(c.Path), c.Kind)
			if len(c.Tracks) == 0 {
				fmt.Fprintln(out, "no audio tracks")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TRACK\tCODEC\tRATE\tCHANNELS\tBITS\tDURATION")
			for _, t := range c.Tracks {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n",
					t.Index, t.Codec, t.Format.SampleRate, t.Format.Channels, t.Format.BitDepth,
					t.Duration.Truncate(time.Millisecond))
			}
			return w.Flush()
		},
	}
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Play an audio track through the default output device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer log.Sync()

			track, _ := cmd.Flags().GetInt("track")
			volume, _ := cmd.Flags().GetInt("volume")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			lib := media.NewLibrary(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
			r, err := lib.Open(ctx, media.SourceTrack{Path: args[0], Index: track}, 0)
			if err != nil {
				return err
			}
			defer r.Close()

			out := output.NewOto(log)
			out.SetVolume(volume)
			defer out.Close()

			return output.Play(ctx, r, out, nil)
		},
	}

	cmd.Flags().Int("track", 0, "Audio track index within the container")
	cmd.Flags().Int("volume", 100, "Playback volume (0-100)")
	return cmd
}
