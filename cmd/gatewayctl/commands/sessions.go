package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage gateway sessions",
	Long: `List sessions known to the gateway and force ownership handoffs
between library workers.

Examples:
  gatewayctl sessions list
  gatewayctl sessions release sess-1 --library worker-a
  gatewayctl sessions acquire sess-1 --library worker-b`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions known to the gateway",
	RunE:  runSessionsList,
}

var releaseLibraryID string
var acquireLibraryID string

var sessionsReleaseCmd = &cobra.Command{
	Use:   "release <session-id>",
	Short: "Release a session to the gateway-managed pool",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsRelease,
}

var sessionsAcquireCmd = &cobra.Command{
	Use:   "acquire <session-id>",
	Short: "Acquire a released session for a library worker",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsAcquire,
}

func init() {
	sessionsReleaseCmd.Flags().StringVar(&releaseLibraryID, "library", "", "library_id currently owning the session (required)")
	_ = sessionsReleaseCmd.MarkFlagRequired("library")

	sessionsAcquireCmd.Flags().StringVar(&acquireLibraryID, "library", "", "library_id to assign ownership to (required)")
	_ = sessionsAcquireCmd.MarkFlagRequired("library")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsReleaseCmd)
	sessionsCmd.AddCommand(sessionsAcquireCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	sessions, err := client().ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION_ID\tOWNER\tOWNED")
	for _, s := range sessions {
		owner := s.OwnerID
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.SessionID, owner, boolToYesNo(s.Owned))
	}
	return w.Flush()
}

func runSessionsRelease(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	if err := client().Release(sessionID, releaseLibraryID); err != nil {
		return fmt.Errorf("failed to release session: %w", err)
	}
	fmt.Printf("Session %s released to gateway.\n", sessionID)
	return nil
}

func runSessionsAcquire(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	if err := client().Acquire(sessionID, acquireLibraryID); err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}
	fmt.Printf("Session %s acquired by %s.\n", sessionID, acquireLibraryID)
	return nil
}

func boolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
