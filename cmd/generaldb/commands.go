package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jacentio/generaldb/store"
)

func (a *app) putCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put [table] [key] [name=KIND:value]...",
		Short: "Writes a record, replacing any existing one",
		Example: `  generaldb put Customer 5555555000 name=CHAR:"John Smith" age=INT:29
  generaldb put CustomerPhone 5555555000 --range "(+1)555-555-555" PhoneType=CHAR:home`,
		Args:              cobra.MinimumNArgs(3),
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs := make([]store.Attribute, 0, len(args)-2)
			for _, arg := range args[2:] {
				attr, err := parseAttribute(arg)
				if err != nil {
					return err
				}
				attrs = append(attrs, attr)
			}

			rk, _ := cmd.Flags().GetString("range")
			var err error
			if rk != "" {
				err = a.store.AddRangeItem(cmd.Context(), args[0], args[1], rk, attrs...)
			} else {
				err = a.store.AddItem(cmd.Context(), args[0], args[1], attrs...)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "put successfully")
			return nil
		},
	}
	cmd.Flags().String("range", "", "range key; writes to the composite-key table")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "get [table] [key] [name:KIND]",
		Short:             "Reads one attribute of a record",
		Args:              cobra.ExactArgs(3),
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseField(args[2])
			if err != nil {
				return err
			}

			rk, _ := cmd.Flags().GetString("range")
			var (
				v     store.Value
				found bool
			)
			if rk != "" {
				v, found, err = a.store.CompositeKey().Get(cmd.Context(), args[0], args[1], rk, f)
			} else {
				v, found, err = a.store.SingleKey().Get(cmd.Context(), args[0], args[1], f)
			}
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=false\n", args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key=%s, found=true, %s\n", args[1], store.Attr(f.Name, v))
			return nil
		},
	}
	cmd.Flags().String("range", "", "range key; reads from the composite-key table")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "delete [table] [key]",
		Short:             "Deletes a record, or every record under a key with --all",
		Args:              cobra.ExactArgs(2),
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			rk, _ := cmd.Flags().GetString("range")
			all, _ := cmd.Flags().GetBool("all")

			switch {
			case all:
				n, err := a.store.DeleteItems(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d items\n", n)
				return nil
			case rk != "":
				if err := a.store.DeleteRangeItem(cmd.Context(), args[0], args[1], rk); err != nil {
					return err
				}
			default:
				if err := a.store.DeleteItem(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "delete successfully")
			return nil
		},
	}
	cmd.Flags().String("range", "", "range key; deletes from the composite-key table")
	cmd.Flags().Bool("all", false, "delete every range record under the key")
	cmd.MarkFlagsMutuallyExclusive("range", "all")
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "query [table] [key] [name:KIND]",
		Short:             "Reads one attribute of every range record under a key",
		Args:              cobra.ExactArgs(3),
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseField(args[2])
			if err != nil {
				return err
			}

			records, err := a.store.CompositeKey().QueryItems(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, rec := range records {
				v, err := rec.Value(f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "range=%s, %s\n", rec.RangeKey, store.Attr(f.Name, v))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records\n", len(records))
			return nil
		},
	}
}

func (a *app) copyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copies the general tables into another region or environment",
		Example: `  generaldb copy --region us-east-1 --to-env TEST-
  generaldb copy --region us-east-1 --to-region eu-west-1 --tables sk`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			toRegion, _ := cmd.Flags().GetString("to-region")
			toProfile, _ := cmd.Flags().GetString("to-profile")
			toEndpoint, _ := cmd.Flags().GetString("to-endpoint")
			toEnv, _ := cmd.Flags().GetString("to-env")
			tables, _ := cmd.Flags().GetString("tables")

			if toRegion == "" {
				toRegion = a.proc.Region()
			}
			if toProfile == "" {
				toProfile = a.v.GetString("profile")
			}
			if toEndpoint == "" {
				toEndpoint = a.v.GetString("endpoint")
			}

			target, err := store.Connect(cmd.Context(), store.ConnectOptions{
				Region:      toRegion,
				Profile:     toProfile,
				Environment: toEnv,
				Endpoint:    toEndpoint,
				Logger:      &a.log,
				Debug:       a.proc.Debug(),
			})
			if err != nil {
				return err
			}

			var report store.CopyReport
			switch tables {
			case "sk":
				report.SingleKey, err = a.store.CopySingleKeyTable(cmd.Context(), target)
			case "dk":
				report.CompositeKey, err = a.store.CopyCompositeKeyTable(cmd.Context(), target)
			case "all":
				report, err = a.store.CopyAll(cmd.Context(), target)
			default:
				return fmt.Errorf("invalid --tables %q (sk, dk, all)", tables)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %d single-key and %d composite-key items\n",
				report.SingleKey, report.CompositeKey)
			return err
		},
	}
	cmd.Flags().String("to-region", "", "target region (default: --region)")
	cmd.Flags().String("to-profile", "", "target profile (default: --profile)")
	cmd.Flags().String("to-endpoint", "", "target endpoint (default: --endpoint)")
	cmd.Flags().String("to-env", "", "target environment prefix")
	cmd.Flags().String("tables", "all", "tables to copy: sk, dk or all")
	return cmd
}

// exampleCmd runs the customer walkthrough against the configured tables.
func (a *app) exampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "example",
		Short:             "Writes, reads and deletes a sample customer with two phones",
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.connect,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			s := a.store
			id := uuid.New().String()[:8]
			customer := "5555555000-" + id

			if err := s.AddItem(ctx, "Customer", customer,
				store.Attr("name", store.Char("John Smith")),
				store.Attr("age", store.Int(29))); err != nil {
				return err
			}
			for rk, kind := range map[string]string{"(+1)555-555-555": "home", "(+1)111-111-111": "work"} {
				if err := s.AddRangeItem(ctx, "CustomerPhone", customer, rk,
					store.Attr("PhoneType", store.Char(kind))); err != nil {
					return err
				}
			}

			name, err := s.GetAttribute(ctx, "Customer", customer, store.FieldOf("name", store.KindChar))
			if err != nil {
				return err
			}
			phones, err := s.GetAttributes(ctx, "CustomerPhone", customer, store.FieldOf("PhoneType", store.KindChar))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "customer %s: name=%s phones=%v\n", customer, name, phones)

			n, err := s.DeleteItems(ctx, "CustomerPhone", customer)
			if err != nil {
				return err
			}
			if err := s.DeleteItem(ctx, "Customer", customer); err != nil {
				return err
			}
			name, err = s.GetAttribute(ctx, "Customer", customer, store.FieldOf("name", store.KindChar))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "deleted %d phones and the customer; name now %q\n", n, name)
			return nil
		},
	}
}

// parseAttribute parses "name=KIND:value".
func parseAttribute(arg string) (store.Attribute, error) {
	name, rest, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return store.Attribute{}, fmt.Errorf("invalid attribute %q, want name=KIND:value", arg)
	}
	kindName, raw, ok := strings.Cut(rest, ":")
	if !ok {
		return store.Attribute{}, fmt.Errorf("invalid attribute %q, want name=KIND:value", arg)
	}
	kind, err := store.ParseKind(kindName)
	if err != nil {
		return store.Attribute{}, err
	}

	switch kind {
	case store.KindInt:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return store.Attribute{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		return store.Attr(name, store.Int(n)), nil
	case store.KindShort:
		n, err := strconv.ParseInt(raw, 10, 16)
		if err != nil {
			return store.Attribute{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		return store.Attr(name, store.Short(n)), nil
	case store.KindJSON:
		return store.Attr(name, store.JSON(raw)), nil
	}
	return store.Attr(name, store.Char(raw)), nil
}

// parseField parses "name:KIND"; the kind defaults to CHAR.
func parseField(arg string) (store.Field, error) {
	name, kindName, ok := strings.Cut(arg, ":")
	if name == "" {
		return store.Field{}, fmt.Errorf("invalid field %q, want name:KIND", arg)
	}
	if !ok {
		return store.FieldOf(name, store.KindChar), nil
	}
	kind, err := store.ParseKind(kindName)
	if err != nil {
		return store.Field{}, err
	}
	return store.FieldOf(name, kind), nil
}
