package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tiktoken-go/tokenizer"
)

func getCodec(model, encoding string) (tokenizer.Codec, error) {
	if model != "" {
		return tokenizer.ForModel(tokenizer.Model(model))
	}
	return tokenizer.Get(tokenizer.Encoding(encoding))
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func registerTokenCommands(rootCmd *cobra.Command) {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Commands related to tokens",
	}

	countCmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Count the tokens in the input",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			encoding, _ := cmd.Flags().GetString("codec")
			codec, err := getCodec(model, encoding)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			ids, _, err := codec.Encode(text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), len(ids))
			return nil
		},
	}

	encodeCmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode the input into token ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			encoding, _ := cmd.Flags().GetString("codec")
			codec, err := getCodec(model, encoding)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			ids, _, err := codec.Encode(text)
			if err != nil {
				return err
			}
			strs := make([]string, len(ids))
			for i, id := range ids {
				strs[i] = strconv.FormatUint(uint64(id), 10)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(strs, " "))
			return nil
		},
	}

	decodeCmd := &cobra.Command{
		Use:   "decode [ids...]",
		Short: "Decode token ids back into text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			encoding, _ := cmd.Flags().GetString("codec")
			codec, err := getCodec(model, encoding)
			if err != nil {
				return err
			}
			ids := make([]uint, 0, len(args))
			for _, arg := range args {
				for _, field := range strings.Fields(arg) {
					id, err := strconv.ParseUint(field, 10, 64)
					if err != nil {
						return err
					}
					ids = append(ids, uint(id))
				}
			}
			text, err := codec.Decode(ids)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	for _, c := range []*cobra.Command{countCmd, encodeCmd, decodeCmd} {
		c.Flags().String("model", "", "Model to use for tokenization")
		c.Flags().String("codec", "cl100k_base", "Codec to use for tokenization")
		tokensCmd.AddCommand(c)
	}

	rootCmd.AddCommand(tokensCmd)
}
