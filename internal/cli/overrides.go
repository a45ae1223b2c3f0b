package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgerock/iga-go-client/pkg/governance"
	"github.com/forgerock/iga-go-client/pkg/request"
)

func (a *app) overridesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Manage translation overrides of UI locales",
	}
	cmd.AddCommand(
		a.overridesGetCommand(),
		a.overridesPutCommand(),
		a.overridesDeleteCommand(),
	)
	return cmd
}

func (a *app) overridesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get LOCALE",
		Short: "Show translation overrides of the locale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(a, cmd, a.api.GetOverridesRequest(args[0]))
		},
	}
}

func (a *app) overridesPutCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "put LOCALE [KEY=VALUE...]",
		Short: "Replace translation overrides of the locale",
		Long:  "Overrides are loaded from the JSON file and/or from KEY=VALUE arguments, the arguments take precedence.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := loadOverrides(cmd.InOrStdin(), file, args[1:])
			if err != nil {
				return err
			}
			return send(a, cmd, a.api.AddOverridesRequest(args[0], overrides))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON file with overrides, "-" for stdin`)
	return cmd
}

func (a *app) overridesDeleteCommand() *cobra.Command {
	var failOnStatus bool
	cmd := &cobra.Command{
		Use:   "delete LOCALE...",
		Short: "Delete translation overrides of the locales",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var lock sync.Mutex
			deleted := []string{}
			notDeleted := []string{}

			grp := request.NewRunGroup(cmd.Context())
			for _, locale := range args {
				locale := locale
				grp.Add(a.api.
					DeleteOverridesRequest(locale, true).
					WithOnComplete(func(_ context.Context, _ request.NoResult, err error) error {
						var apiErr *governance.Error
						if err != nil && (failOnStatus || !errors.As(err, &apiErr)) {
							return err
						}

						lock.Lock()
						defer lock.Unlock()
						if err != nil {
							a.logger.Warn("overrides not deleted", zap.String("locale", locale), zap.Error(err))
							notDeleted = append(notDeleted, locale)
							return nil
						}
						a.logger.Debug("overrides deleted", zap.String("locale", locale))
						deleted = append(deleted, locale)
						return nil
					}),
				)
			}
			if err := grp.RunAndWait(); err != nil {
				return err
			}

			sort.Strings(deleted)
			sort.Strings(notDeleted)
			return a.print(map[string]any{"deleted": deleted, "notDeleted": notDeleted})
		},
	}
	cmd.Flags().BoolVar(&failOnStatus, "fail-on-status", false, "fail if the API returns an error status code, otherwise the locale is reported as not deleted")
	return cmd
}

func loadOverrides(stdin io.Reader, file string, pairs []string) (*orderedmap.OrderedMap, error) {
	overrides := orderedmap.New()

	if file != "" {
		var content []byte
		var err error
		if file == "-" {
			content, err = io.ReadAll(stdin)
		} else {
			content, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, fmt.Errorf(`cannot read overrides file "%s": %w`, file, err)
		}
		if err := json.Unmarshal(content, overrides); err != nil {
			return nil, fmt.Errorf(`overrides file "%s" is not valid JSON object: %w`, file, err)
		}
	}

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf(`invalid override "%s", expected KEY=VALUE`, pair)
		}
		overrides.Set(key, value)
	}

	if len(overrides.Keys()) == 0 {
		return nil, fmt.Errorf("no overrides specified, use the --file flag or KEY=VALUE arguments")
	}
	return overrides, nil
}
