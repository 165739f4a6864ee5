package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"opsgate/internal/config"
	"opsgate/internal/interpret"
)

var interpretCmd = &cobra.Command{
	Use:   "interpret [text...]",
	Short: "Parse one request into a command without registering it",
	Long: `Parse free-form request text into a structured command and print it
as JSON. No confirmation is registered and nothing is executed; use this
to preview what a request would turn into.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInterpret,
}

func init() {
	interpretCmd.Flags().Bool("model", false, "prefer the model interpreter (needs LLM_* env)")
}

func runInterpret(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	preferModel, _ := cmd.Flags().GetBool("model")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var model *interpret.Model
	if preferModel {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		client, err := buildLLMClient(ctx, cfg.LLM)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("--model needs an LLM provider; set LLM_PROVIDER and LLM_API_KEY")
		}
		defer client.Close()
		model = interpret.NewModel(client, cfg.LLM.Timeout, zap.NewNop())
	}

	parser := interpret.NewParser(model, zap.NewNop())
	result, err := parser.Parse(ctx, text, preferModel)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
