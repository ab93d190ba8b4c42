// Command chat is a terminal client for the coach. Each line typed is sent as
// a chat turn; replies print as they arrive.
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"achapi-coach/internal/logging"
	"achapi-coach/internal/session"
)

var (
	gatewayURL  string
	turnTimeout time.Duration
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Talk to the coach from a terminal",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.Flags().StringVar(&gatewayURL, "gateway", "http://localhost:4000", "chat gateway base URL")
	rootCmd.Flags().DurationVar(&turnTimeout, "timeout", 45*time.Second, "per-turn timeout")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
}

func runChat(cmd *cobra.Command, args []string) error {
	logger, err := logging.New("development", logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client := session.NewHTTPClient(gatewayURL)
	defer client.Close()

	s := session.New(client, nil, nil, session.Environment{},
		session.WithLogger(logger),
		session.WithTurnTimeout(turnTimeout),
	)
	defer s.Close()

	out := cmd.OutOrStdout()
	printed := 0
	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		if s.SendTyped(scanner.Text()) {
			s.Wait()
		}
		msgs := s.Transcript()
		for _, m := range msgs[printed:] {
			if m.Sender == session.SenderCoach {
				fmt.Fprintf(out, "coach: %s\n", m.Text)
			}
		}
		printed = len(msgs)
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
