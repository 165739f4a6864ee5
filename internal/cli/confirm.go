package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm <token> <decision>",
	Short: "Decide a pending confirmation on a running gateway",
	Long: `Send a decision ("confirm"/"yes" or "cancel"/"no") for a pending
confirmation token to a running opsgate gateway and print the resulting
record.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfirm,
}

func init() {
	confirmCmd.Flags().String("gateway", "", "gateway base URL (default OPSGATE_URL or http://127.0.0.1:8080)")
}

func runConfirm(cmd *cobra.Command, args []string) error {
	token, decision := args[0], args[1]

	base, _ := cmd.Flags().GetString("gateway")
	if strings.TrimSpace(base) == "" {
		base = strings.TrimSpace(os.Getenv("OPSGATE_URL"))
	}
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	base = strings.TrimRight(base, "/")

	payload, err := json.Marshal(map[string]string{"decision": decision})
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	url := base + "/v1/confirmations/" + token
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			return fmt.Errorf("%s: %s", eb.Error, eb.Message)
		}
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
	return nil
}
