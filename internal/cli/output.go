package cli

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/forgerock/iga-go-client/pkg/request"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// print writes the value as an indented JSON to the stdout.
func (a *app) print(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, string(out))
	return err
}

// send sends the request and prints the result.
func send[R request.Result](a *app, cmd *cobra.Command, req request.APIRequest[R]) error {
	result, err := req.Send(cmd.Context())
	if err != nil {
		return err
	}
	return a.print(result)
}
