package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

func newProbeCmd(opts *rootOptions) *cobra.Command {
	var sessionID string

	c := &cobra.Command{
		Use:   "probe --session ID TEXT...",
		Short: "Run one turn and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configureLogging(opts.cfg, cmd.ErrOrStderr()); err != nil {
				return err
			}

			a, err := wireApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.engine.Run(cmd.Context(), domain.SessionID(sessionID), strings.Join(args, " "))
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}

	c.Flags().StringVar(&sessionID, "session", "", "session id (empty runs a stateless turn)")
	return c
}

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var sessionID string

	c := &cobra.Command{
		Use:   "replay --session ID [FILE]",
		Short: "Run one turn per non-empty line of FILE (or stdin) and print one JSON result per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				return errors.New("--session is required")
			}
			if err := configureLogging(opts.cfg, cmd.ErrOrStderr()); err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open transcript: %w", err)
				}
				defer f.Close()
				in = f
			}

			a, err := wireApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			return replay(cmd, in, func(line string) any {
				return a.engine.Run(cmd.Context(), domain.SessionID(sessionID), line)
			})
		},
	}

	c.Flags().StringVar(&sessionID, "session", "", "session id shared by every line")
	return c
}

func replay(cmd *cobra.Command, in io.Reader, turn func(string) any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := enc.Encode(turn(line)); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	return nil
}
