package command

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/foxhorn/foxyserver/internal/core/domain"
	"github.com/foxhorn/foxyserver/pkg/token"
)

// HashPasswordCommand prints the argon2id encoding of a password, as used
// by security.admin_password_hash.
func HashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print the argon2id hash of a password",
		ArgsUsage: "<password>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "stdin",
				Usage: "Read the password from the first line of stdin",
			},
		},
		Action: hashPassword,
	}
}

func hashPassword(c *cli.Context) error {
	password := c.Args().First()
	if c.Bool("stdin") {
		reader := c.App.Reader
		if reader == nil {
			reader = os.Stdin
		}
		line, err := bufio.NewReader(reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password is required")
	}

	hash, err := domain.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(writer(c), hash)
	return nil
}

// GenSaltCommand prints a random private salt.
func GenSaltCommand() *cli.Command {
	return &cli.Command{
		Name:  "gen-salt",
		Usage: "Print a random value for security.private_salt",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "bytes",
				Usage: "Number of random bytes",
				Value: token.DefaultLength,
			},
		},
		Action: genSalt,
	}
}

func genSalt(c *cli.Context) error {
	n := c.Int("bytes")
	if n < 16 {
		return fmt.Errorf("--bytes must be at least 16, got %d", n)
	}
	salt, err := token.GenerateWithLength(n)
	if err != nil {
		return err
	}
	fmt.Fprintln(writer(c), salt)
	return nil
}
