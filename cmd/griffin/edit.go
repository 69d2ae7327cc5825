package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/autosave"
	"github.com/xxxsen/griffin/internal/client"
	"github.com/xxxsen/griffin/internal/tabs"
)

func newEditCmd() *cobra.Command {
	var (
		delay   time.Duration
		maxWait time.Duration
	)
	cmd := &cobra.Command{
		Use:   "edit <note-id> <file>",
		Short: "watch a local file and autosave it into a note",
		Long: "edit writes the note content to <file> when it does not exist yet, then " +
			"saves every change to the note until interrupted.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			store, err := openState()
			if err != nil {
				return err
			}
			api, err := newAPIClient(store)
			if err != nil {
				return err
			}
			note, err := api.GetNote(ctx, args[0])
			if err != nil {
				return err
			}
			if m, err := tabs.Load(store); err == nil {
				if _, err := m.Open(note.ID, note.Title); err != nil {
					logutil.GetLogger(ctx).Warn("record tab failed", zap.Error(err))
				}
			}
			return watchAndSave(ctx, api, note, args[1], delay, maxWait, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "quiet period before a save")
	cmd.Flags().DurationVar(&maxWait, "max-wait", 10*time.Second, "longest time an unsaved change may wait")
	return cmd
}

func watchAndSave(ctx context.Context, api *client.Client, note *client.Note, file string, delay, maxWait time.Duration, out io.Writer) error {
	path, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(note.Content), 0o644); err != nil {
			return err
		}
	}

	// saves are serialized by the debouncer
	lastSaved := note.Content
	saver := autosave.New(delay, maxWait, func(ctx context.Context) error {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := string(raw)
		if content == lastSaved {
			return nil
		}
		if _, err := api.UpdateNote(ctx, note.ID, client.NoteUpdate{Content: &content}); err != nil {
			return err
		}
		lastSaved = content
		fmt.Fprintf(out, "%s saved %s (%d bytes)\n", time.Now().Format("15:04:05"), note.ID, len(raw))
		return nil
	}, autosave.WithErrorHandler(func(err error) {
		logutil.GetLogger(ctx).Error("autosave failed, will retry on next change", zap.String("note_id", note.ID), zap.Error(err))
	}))

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	// watch the directory so editors that replace the file by rename keep working
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return err
	}
	fmt.Fprintf(out, "editing %s in %s, ctrl-c to stop\n", note.ID, path)

	for {
		select {
		case <-ctx.Done():
			return saver.Stop(context.Background())
		case event, ok := <-fsw.Events:
			if !ok {
				return saver.Stop(context.Background())
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				saver.Trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return saver.Stop(context.Background())
			}
			logutil.GetLogger(ctx).Warn("file watcher error", zap.Error(err))
		}
	}
}
