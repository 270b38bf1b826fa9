package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// call sends a JSON request to ledgerd and pretty prints the response body.
// Non-2xx responses are reported as errors so the exit code reflects them.
func call(c *cobra.Command, method, path string, body interface{}) error {
	baseURL, err := c.Flags().GetString(FlagURL)
	if err != nil {
		return err
	}
	token, err := c.Flags().GetString(FlagToken)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "Failed to encode request")
		}
	}

	req, err := http.NewRequest(method, baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "Failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if len(token) > 0 {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "Request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "Failed to read response")
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "    "); err != nil {
		pretty.Write(raw)
	}
	fmt.Printf("%s\n", pretty.String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("Status %d", resp.StatusCode)
	}
	return nil
}
