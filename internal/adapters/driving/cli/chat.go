package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var chatTopK int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation about the documentation",
	Long: `Starts an interactive session. Earlier questions and answers are sent
with each new question so follow-ups like "what about the 20 GPM pump?"
work.

Commands:
  /history        show the conversation so far
  /clear          forget the conversation
  /export <path>  write the conversation to a .json or .yaml file
  quit, exit, q   leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "number of sources per question (0 = configured default)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := requireIndex(cmd); err != nil {
		return err
	}
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	in := cmd.InOrStdin()
	interactive := isTerminal(in)
	if interactive {
		cmd.Println(headingStyle.Render("docqa chat") + dimStyle.Render("  (type 'quit' to leave, '/history' to review)"))
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			cmd.Print("\nYou: ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !handleChatLine(cmd, line) {
			return nil
		}
	}
	return scanner.Err()
}

// handleChatLine processes one line of input. It returns false when the
// session should end.
func handleChatLine(cmd *cobra.Command, line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return false
	case "/history":
		printHistory(cmd, chatService.History())
		return true
	case "/clear":
		chatService.ClearHistory()
		cmd.Println("Conversation cleared.")
		return true
	}

	if path, ok := strings.CutPrefix(line, "/export"); ok {
		path = strings.TrimSpace(path)
		if path == "" {
			cmd.PrintErrln("Usage: /export <path.json|path.yaml>")
			return true
		}
		if err := exportTurns(cmd.Context(), path, chatService.History()); err != nil {
			cmd.PrintErrln("Error:", err)
			return true
		}
		cmd.Printf("Exported %d turns to %s\n", len(chatService.History()), path)
		return true
	}

	answer, err := chatService.Ask(cmd.Context(), line, domain.AskOptions{TopK: chatTopK, WithHistory: true})
	if err != nil {
		cmd.PrintErrln("Error:", err)
		return true
	}
	cmd.Println()
	printAnswer(cmd, answer, true)
	return true
}

func printHistory(cmd *cobra.Command, turns []domain.ConversationTurn) {
	if len(turns) == 0 {
		cmd.Println("No conversation yet.")
		return
	}
	for i, t := range turns {
		cmd.Println(headingStyle.Render("Q" + strconv.Itoa(i+1) + ": " + t.Question))
		cmd.Println("A: " + snippet(t.Answer, 240))
		cmd.Println()
	}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
