package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"ortbridge/pkg/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newCallCmd() *cobra.Command {
	var (
		addr    string
		rawArgs string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:     "call <method>",
		Short:   "Invoke one method on a running server",
		Example: "  ortbridge call listModels\n  ortbridge call createSession --args '{\"modelPath\":\"mnist.onnx\"}'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			res, err := callMethod(ctx, http.DefaultClient, addr, args[0], rawArgs)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if res.Error != nil {
				return fmt.Errorf("%s: %s", res.Error.Code, res.Error.Message)
			}
			if res.NotImplemented {
				return fmt.Errorf("method not implemented: %s", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envStr("ORTBRIDGE_URL", "http://127.0.0.1:8080"), "Server base URL")
	cmd.Flags().StringVar(&rawArgs, "args", "", "Method arguments as a JSON object")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Request timeout")
	return cmd
}

// callMethod POSTs one call envelope to base/call and decodes the result.
func callMethod(ctx context.Context, client *http.Client, base, method, rawArgs string) (types.MethodResult, error) {
	var res types.MethodResult
	call := types.MethodCall{Method: method}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &call.Args); err != nil {
			return res, fmt.Errorf("--args: %w", err)
		}
	}
	body, err := json.Marshal(call)
	if err != nil {
		return res, err
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/call", bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return res, err
	}
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return res, fmt.Errorf("decode result: %w", err)
	}
	return res, nil
}
