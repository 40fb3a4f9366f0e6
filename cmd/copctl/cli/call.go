package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/coscon/cop-sdk-go/coperr"
	"github.com/spf13/cobra"
)

// ExitBusiness is the exit code of a call answered with a business error.
const ExitBusiness = 2

type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

// callOptions holds the flags of get and post.
type callOptions struct {
	Headers  []string
	Envelope bool
	Data     string
}

func (o *callOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.Headers, "header", "H", nil,
		`extra request header as "Name: value", may be repeated`)

	cmd.Flags().BoolVar(&o.Envelope, "envelope", false,
		"decode the COP envelope and print its data; business errors exit with code 2")
}

func (o *callOptions) header() (http.Header, error) {
	if len(o.Headers) == 0 {
		return nil, nil
	}

	h := make(http.Header, len(o.Headers))

	for _, raw := range o.Headers {
		name, value, ok := strings.Cut(raw, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", raw)
		}

		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return h, nil
}

// payload returns the request body. A value starting with @ names a file;
// "@-" reads stdin.
func (o *callOptions) payload(stdin io.Reader) ([]byte, error) {
	path, isFile := strings.CutPrefix(o.Data, "@")
	if !isFile {
		return []byte(o.Data), nil
	}

	if path == "-" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

func newGetCommand(a *app) *cobra.Command {
	o := &callOptions{}

	cmd := &cobra.Command{
		Use:   "get NAMESPACE PATH",
		Short: "Send a signed GET request.",
		Example: `  copctl get COP_PUBLIC_PP "/info/tracking/6103622780?numberType=bl"
  copctl get COP_PUBLIC_PP /info/tracking/6103622780 --envelope`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, o, http.MethodGet, args[0], args[1], nil)
		},
	}
	o.addFlags(cmd)

	return cmd
}

func newPostCommand(a *app) *cobra.Command {
	o := &callOptions{}

	cmd := &cobra.Command{
		Use:   "post NAMESPACE PATH",
		Short: "Send a signed JSON POST request.",
		Example: `  copctl post COP_PUBLIC_PP /synconhub/search --data '{"page":1}'
  copctl post COP_PUBLIC_PP /synconhub/search --data @query.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := o.payload(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("unable to read payload: %w", err)
			}

			return a.call(cmd, o, http.MethodPost, args[0], args[1], body)
		},
	}
	o.addFlags(cmd)

	cmd.Flags().StringVarP(&o.Data, "data", "d", "",
		"JSON request body, @FILE to read a file or @- for stdin")

	return cmd
}

func (a *app) call(cmd *cobra.Command, o *callOptions, method, nsName, path string, body []byte) error {
	headers, err := o.header()
	if err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	ns, err := lookup(c, nsName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !o.Envelope {
		var result string

		if method == http.MethodPost {
			result, err = c.Post(ctx, ns, path, body, headers)
		} else {
			result, err = c.Get(ctx, ns, path, headers)
		}

		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(out, result)

		return err
	}

	var payload any
	if body != nil {
		payload = body
	}

	env, err := c.Call(ctx, method, ns, path, payload, headers)
	if err != nil {
		if errors.Is(err, coperr.ErrBusiness) {
			return &exitError{err: err, code: ExitBusiness}
		}

		return err
	}

	if len(env.Data) == 0 {
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, env.Data, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(env.Data)
	}

	_, err = fmt.Fprintln(out, pretty.String())

	return err
}
