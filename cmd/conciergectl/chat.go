package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/concierge/internal/config"
	"github.com/Harshitk-cp/concierge/internal/domain"
	"github.com/Harshitk-cp/concierge/internal/knowledge"
	"github.com/Harshitk-cp/concierge/internal/notify"
	"github.com/Harshitk-cp/concierge/internal/service"
	"github.com/Harshitk-cp/concierge/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChatCmd() *cobra.Command {
	var (
		kbPath  string
		dbURL   string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the booking conversation on stdin/stdout",
		Long: "Starts a local conversation against a knowledge file. Bookings are stored in SQLite " +
			"and confirmations are logged instead of emailed. Type /quit to exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			defer func() { _ = logger.Sync() }()

			if kbPath == "" {
				kbPath = config.KnowledgeBasePath()
			}
			kb, err := knowledge.LoadFile(kbPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			bookings, closeFn, err := store.OpenBookings(ctx, dbURL)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := bookings.EnsureSchema(ctx); err != nil {
				return err
			}

			sink := service.NewBookingService(bookings, notify.NewLogNotifier(logger), logger)
			svc := service.NewConversationService(kb, store.NewMemorySessionStore(), sink, logger)

			return runChat(cmd, svc, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&kbPath, "kb", "", "knowledge base file (default: KB_PATH or kb/amenities_kb.txt)")
	cmd.Flags().StringVar(&dbURL, "db", "sqlite://concierge.db", "booking database url")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	return cmd
}

func runChat(cmd *cobra.Command, svc *service.ConversationService, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	sessionID := uuid.NewString()

	// An empty first message gets the greeting.
	reply, err := svc.HandleMessage(ctx, sessionID, "")
	if err != nil {
		return err
	}
	printReply(out, reply)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			return nil
		}

		reply, err := svc.HandleMessage(ctx, sessionID, line)
		if err != nil && !errors.Is(err, service.ErrBookingFailed) {
			return err
		}
		printReply(out, reply)
	}
}

func printReply(out io.Writer, r *domain.Reply) {
	fmt.Fprintln(out, r.Message)
	for _, s := range r.Slots {
		fmt.Fprintf(out, "  - %s\n", s)
	}
}
