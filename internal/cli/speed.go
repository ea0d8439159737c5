// ABOUTME: speed command
// ABOUTME: Runs one transform with optional progress view and signal cancellation
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/econner/cinesnap/internal/ui"
	"github.com/econner/cinesnap/pkg/media"
	"github.com/econner/cinesnap/pkg/speed"
)

func newSpeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speed <input>",
		Short: "Write a sped-up or slowed-down copy of a track as WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeed(cmd, args[0])
		},
	}

	cmd.Flags().Float64("factor", 0, "Speed factor (2 = twice as fast, 0.5 = half speed)")
	cmd.Flags().Int("track", 0, "Audio track index within the container")
	cmd.Flags().String("out", "", "Output directory (default from config)")
	cmd.Flags().String("method", "", "Scaling method: varispeed or wsola (default from config)")
	cmd.Flags().Bool("tui", false, "Show a progress view")
	_ = cmd.MarkFlagRequired("factor")

	return cmd
}

func runSpeed(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	factor, _ := cmd.Flags().GetFloat64("factor")
	track, _ := cmd.Flags().GetInt("track")
	useTUI, _ := cmd.Flags().GetBool("tui")
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Transform.OutputDir = out
	}
	if method, _ := cmd.Flags().GetString("method"); method != "" {
		cfg.Transform.Method = method
	}

	log, err := newLogger(cfg, useTUI)
	if err != nil {
		return err
	}
	defer log.Sync()

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sc := cfg.Speed()
	lib := media.NewLibrary(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
	lib.Channels = sc.Channels
	opts := []speed.Option{
		speed.WithOpener(lib),
		speed.WithLogger(log),
	}

	var prog *tea.Program
	if useTUI {
		prog = ui.Run(ui.Job{
			Source:     absIn,
			Factor:     factor,
			Method:     string(sc.Method),
			SampleRate: sc.SampleRate,
			Channels:   sc.Channels,
			BitDepth:   sc.BitDepth,
			Cancel:     cancel,
		})
		opts = append(opts, speed.WithProgress(func(p speed.Progress) {
			prog.Send(ui.ProgressMsg(p))
		}))
	}

	tr, err := speed.New(sc, opts...)
	if err != nil {
		return err
	}

	src := media.SourceTrack{Path: absIn, Index: track}
	if prog == nil {
		res, err := tr.Transform(ctx, src, factor)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Path)
		return nil
	}

	type outcome struct {
		res *speed.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := tr.Transform(ctx, src, factor)
		msg := ui.DoneMsg{Err: err}
		if res != nil {
			msg.Path = res.Path
		}
		prog.Send(msg)
		done <- outcome{res, err}
	}()

	if _, err := prog.Run(); err != nil {
		log.Warn("progress view failed", zap.Error(err))
	}
	o := <-done
	if o.err != nil {
		return o.err
	}
	fmt.Fprintln(cmd.OutOrStdout(), o.res.Path)
	return nil
}
