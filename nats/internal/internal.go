// Package internal holds the connection settings shared by the overlap NATS client and worker.
package internal

import "github.com/nats-io/nats.go"

// Defaults returns the connection options used when nothing is configured.
func Defaults(clientName string) Options {
	return Options{
		URL:        nats.DefaultURL,
		ClientName: clientName,
	}
}

// Options describes how to connect to NATS.  These are read with configuration.Unmarshal.
type Options struct {
	// ClientName specifies the name of the client, which is used in logs and metadata to identify the client for
	// debugging purposes.
	ClientName string `cfg:"nats_client_name"`

	// URL specifies the NATS client URL used to connect to the NATS server.  This defaults to
	// `nats://localhost:4222`.
	URL string `cfg:"nats_url"`

	// NKeyFile provides the path to an nkey seed / secret file that will be used to authenticate with the NATS server.
	NKeyFile string `cfg:"nats_nk"`

	// CA provides the path to a file containing trusted certificates for verifying the NATS server.  If not provided,
	// the host certificate authorities will be used.
	CA string `cfg:"nats_ca"`
}

// Dial will connect to the NATS server using the options provided.
func (opts *Options) Dial(more ...nats.Option) (*nats.Conn, error) {
	options := make([]nats.Option, 0, 8)
	if opts.NKeyFile != `` {
		opt, err := nats.NkeyOptionFromSeed(opts.NKeyFile)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	if opts.CA != `` {
		options = append(options, nats.RootCAs(opts.CA))
	}
	if opts.ClientName != `` {
		options = append(options, nats.Name(opts.ClientName))
	}
	options = append(options, more...)
	return nats.Connect(opts.URL, options...)
}
