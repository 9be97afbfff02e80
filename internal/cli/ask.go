package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"furnish/internal/api"
	"furnish/internal/domain"
)

var (
	askJSON        bool
	askInteractive bool
	askCatalogFile string
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the assistant from the terminal",
	Long: `Send one message, or start a conversation with -i. In a conversation the
session (history and shown items) carries from turn to turn exactly as a
chat client would resend it.

Examples:
  furnish ask "grey sofa under $500"
  furnish ask -i
  furnish ask --json "show me beds"`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the wire response as JSON")
	askCmd.Flags().BoolVarP(&askInteractive, "interactive", "i", false, "keep the conversation going")
	askCmd.Flags().StringVar(&askCatalogFile, "catalog-file", "", "catalog file or directory to import at startup")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if !askInteractive && len(args) == 0 {
		return fmt.Errorf("a message is required unless --interactive is set")
	}

	ctx := logger.WithContext(cmd.Context())
	engine, cat, err := buildEngine(ctx, GetConfig(), askCatalogFile)
	if err != nil {
		return err
	}
	defer cat.Close()

	var session domain.SessionContext
	turn := func(message string) error {
		reply, err := engine.Reply(ctx, message, session)
		if err != nil {
			return err
		}
		session = reply.Session
		printReply(reply)
		return nil
	}

	if len(args) > 0 {
		if err := turn(strings.Join(args, " ")); err != nil {
			return err
		}
	}
	if !askInteractive {
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if err := turn(line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func printReply(reply domain.Reply) {
	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(api.ResponseFromReply(reply))
		return
	}

	fmt.Println(reply.Envelope.Text())
	for i, it := range reply.Envelope.Items() {
		price := "price n/a"
		if it.HasPrice() {
			price = fmt.Sprintf("$%.2f", it.Price)
		}
		fmt.Printf("  %d. %s (%s, score %.3f)\n", i+1, it.Title, price, it.Score)
		if it.Blurb != "" {
			fmt.Printf("     %s\n", it.Blurb)
		}
		if len(it.KeyFeatures) > 0 {
			fmt.Printf("     %s\n", strings.Join(it.KeyFeatures, " · "))
		}
	}
	if reply.Envelope.Kind == domain.KindProducts {
		fmt.Printf("(%d shown; say \"show me more\" for the next page)\n", len(reply.Session.LastShown))
	}
}
