package cli

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xjwt/certutil"
	"github.com/effective-security/xjwt/jwt"
	"github.com/effective-security/xlog"
)

// KeygenCmd generates a signing key
type KeygenCmd struct {
	Alg   string `required:"" help:"signature algorithm"`
	Out   string `help:"output file for the private key, printed to stdout if not provided"`
	JWK   string `name:"jwk" help:"folder to save the public key as <kid>.jwk"`
	KeyID string `name:"kid" help:"key ID of JWK, the thumbprint is used if not provided"`
}

// Run the command
func (a *KeygenCmd) Run(ctx *Cli) error {
	alg, err := jwt.ParseAlgorithm(a.Alg)
	if err != nil {
		return err
	}

	var (
		data   []byte
		signer crypto.Signer
	)
	switch alg.Family() {
	case jwt.FamilyNone:
		return errors.Errorf("key is not used for %s", alg)
	case jwt.FamilyHMAC:
		secret := make([]byte, alg.Hash().Size())
		if _, err = rand.Read(secret); err != nil {
			return errors.WithStack(err)
		}
		data = []byte(jwt.EncodeSegment(secret) + "\n")
	case jwt.FamilyRSA, jwt.FamilyRSAPSS:
		bits := 2048
		switch alg.Hash() {
		case crypto.SHA384:
			bits = 3072
		case crypto.SHA512:
			bits = 4096
		}
		signer, err = rsa.GenerateKey(rand.Reader, bits)
	case jwt.FamilyECDSA:
		signer, err = ecdsa.GenerateKey(alg.Curve(), rand.Reader)
	case jwt.FamilyEdDSA:
		_, signer, err = ed25519.GenerateKey(rand.Reader)
	}
	if err != nil {
		return errors.WithMessagef(err, "unable to generate key for %s", alg)
	}

	if signer != nil {
		if data, err = certutil.EncodePrivateKeyToPEM(signer); err != nil {
			return err
		}
	}

	if a.Out != "" {
		if err = os.WriteFile(a.Out, data, 0600); err != nil {
			return errors.WithMessage(err, "unable to save key")
		}
		logger.KV(xlog.DEBUG, "alg", alg, "file", a.Out)
	} else {
		_, _ = ctx.Writer().Write(data)
	}

	if a.JWK != "" {
		if signer == nil {
			return errors.Errorf("JWK is not supported for %s", alg)
		}
		k, err := jwt.NewJWK(signer.Public(), alg, a.KeyID)
		if err != nil {
			return err
		}
		fn, err := jwt.SaveJWK(a.JWK, k)
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.Writer(), fn)
	}
	return nil
}
