// sia-wallet CLI - thin command surface over the wallet library.
//
// Example usage:
//
//	# Derive the v2 address of a public key
//	sia-wallet address ed25519:7931b69fe8888e354d601a778e31bfa97fa89dc6f625cd01cc8aa28046e557e7
//
//	# Query a walletd node
//	sia-wallet --node https://sia.example.com tip
//	sia-wallet --node https://sia.example.com balance <address>
//	sia-wallet --node https://sia.example.com utxos <address>
//
//	# Decode a payment request URI
//	sia-wallet request "siacoin:<address>?amount=1000000"
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/sia-wallet/pkg/requests"
	"github.com/suffix-labs/sia-wallet/pkg/types"
	"github.com/suffix-labs/sia-wallet/pkg/walletd"
)

func main() {
	app := &cli.App{
		Name:  "sia-wallet",
		Usage: "construct Sia transactions and query walletd",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "node",
				Usage: "base URL of the walletd node",
				Value: "http://localhost:9980",
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "walletd API password",
				EnvVars: []string{"SIA_API_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log requests to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "address",
				Usage:     "derive the v2 address of a public key",
				ArgsUsage: "<ed25519:pubkey>",
				Action:    cmdAddress,
			},
			{
				Name:      "address-v1",
				Usage:     "derive the legacy v1 address of a public key",
				ArgsUsage: "<ed25519:pubkey>",
				Action:    cmdAddressV1,
			},
			{
				Name:   "tip",
				Usage:  "print the current consensus tip",
				Action: cmdTip,
			},
			{
				Name:      "balance",
				Usage:     "print the balance of an address",
				ArgsUsage: "<address>",
				Action:    cmdBalance,
			},
			{
				Name:      "utxos",
				Usage:     "list the unspent siacoin outputs of an address",
				ArgsUsage: "<address>",
				Action:    cmdUTXOs,
			},
			{
				Name:   "fee",
				Usage:  "print the recommended fee in hastings per byte",
				Action: cmdFee,
			},
			{
				Name:      "request",
				Usage:     "decode a siacoin: payment request URI",
				ArgsUsage: "<uri>",
				Action:    cmdRequest,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func client(c *cli.Context) *walletd.Client {
	opts := []walletd.Option{}
	if pw := c.String("password"); pw != "" {
		opts = append(opts, walletd.WithPassword(pw))
	}
	if c.Bool("verbose") {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		opts = append(opts, walletd.WithLogger(log))
	}
	return walletd.NewClient(c.String("node"), opts...)
}

func argPublicKey(c *cli.Context) (types.PublicKey, error) {
	if c.NArg() != 1 {
		return types.PublicKey{}, fmt.Errorf("expected exactly one public key argument")
	}
	return types.ParsePublicKey(c.Args().First())
}

func argAddress(c *cli.Context) (types.Address, error) {
	if c.NArg() != 1 {
		return types.Address{}, fmt.Errorf("expected exactly one address argument")
	}
	return types.ParseAddress(c.Args().First())
}

func cmdAddress(c *cli.Context) error {
	pk, err := argPublicKey(c)
	if err != nil {
		return err
	}
	fmt.Println(pk.StandardAddress())
	return nil
}

func cmdAddressV1(c *cli.Context) error {
	pk, err := argPublicKey(c)
	if err != nil {
		return err
	}
	fmt.Println(types.StandardAddressV1(pk))
	return nil
}

func cmdTip(c *cli.Context) error {
	tip, err := client(c).ConsensusTip(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(tip)
	return nil
}

func cmdBalance(c *cli.Context) error {
	addr, err := argAddress(c)
	if err != nil {
		return err
	}
	bal, err := client(c).AddressBalance(c.Context, addr)
	if err != nil {
		return err
	}
	fmt.Printf("siacoins:          %v H\n", bal.Siacoins)
	fmt.Printf("immature siacoins: %v H\n", bal.ImmatureSiacoins)
	fmt.Printf("siafunds:          %v\n", bal.Siafunds)
	return nil
}

func cmdUTXOs(c *cli.Context) error {
	addr, err := argAddress(c)
	if err != nil {
		return err
	}
	utxos, err := client(c).AddressSiacoinOutputs(c.Context, addr, 0, 100)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(utxos)
}

func cmdFee(c *cli.Context) error {
	fee, err := client(c).TxpoolFee(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("%v H/byte\n", fee)
	return nil
}

func cmdRequest(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one URI argument")
	}
	req, err := requests.Parse(c.Args().First())
	if err != nil {
		return err
	}
	for i, p := range req.Payments {
		fmt.Printf("payment %d:\n", i)
		fmt.Printf("  address: %v\n", p.Address)
		if p.Amount != nil {
			fmt.Printf("  amount:  %v H\n", p.Amount)
		}
		if p.Label != nil {
			fmt.Printf("  label:   %s\n", *p.Label)
		}
		if p.Message != nil {
			fmt.Printf("  message: %s\n", *p.Message)
		}
	}
	total, err := req.Total()
	if err != nil {
		return err
	}
	fmt.Printf("total: %v H\n", total)
	return nil
}
