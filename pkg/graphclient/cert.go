package graphclient

import (
	"context"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // Entra ID's x5t thumbprint convention mandates SHA-1.
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	jwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/maes-platform/compliance-core/internal/apperr"
)

// certMaterial holds the parsed key pair used to sign client assertions.
type certMaterial struct {
	privateKey *rsa.PrivateKey
	certDER    []byte
}

// loadCertMaterial parses a PEM-encoded private key and certificate from
// disk. The core never persists certificate bodies in the database; a
// tenant's CertReference resolves to filesystem paths (spec §4.A).
func loadCertMaterial(keyPath, certPath string) (*certMaterial, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading key file: %v", apperr.ErrCertInvalid, err)
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading cert file: %v", apperr.ErrCertInvalid, err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, fmt.Errorf("%w: no PEM block in key file", apperr.ErrCertInvalid)
	}
	key, err := parseRSAPrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing private key: %v", apperr.ErrCertInvalid, err)
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, fmt.Errorf("%w: no PEM block in cert file", apperr.ErrCertInvalid)
	}
	if _, err := x509.ParseCertificate(certBlock.Bytes); err != nil {
		return nil, fmt.Errorf("%w: parsing certificate: %v", apperr.ErrCertInvalid, err)
	}

	return &certMaterial{privateKey: key, certDER: certBlock.Bytes}, nil
}

func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return key, nil
}

// thumbprintHex returns the uppercase hex SHA-1 thumbprint of a DER
// certificate: the same digest that x5tHeader encodes as base64url.
func thumbprintHex(der []byte) string {
	sum := sha1.Sum(der) //nolint:gosec
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}

// x5tHeader returns the base64url-encoded raw SHA-1 digest used as the JWT
// "x5t" header, per RFC 7515 and Entra ID's client-assertion contract.
func x5tHeader(der []byte) string {
	sum := sha1.Sum(der) //nolint:gosec
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// certTokenSource builds and signs a JWT client assertion for each token
// request (spec §4.A "Certificate-based auth").
type certTokenSource struct {
	directoryTenantID string
	clientID          string
	material          *certMaterial
	httpClient        *http.Client
}

func newCertTokenSource(directoryTenantID, clientID string, material *certMaterial) *certTokenSource {
	return &certTokenSource{
		directoryTenantID: directoryTenantID,
		clientID:          clientID,
		material:          material,
		httpClient:        &http.Client{Timeout: requestDeadline},
	}
}

func (c *certTokenSource) Token(ctx context.Context) (string, error) {
	assertion, err := c.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type":            {"client_credentials"},
		"client_id":             {c.clientID},
		"client_assertion_type": {"urn:ietf:params:oauth:client-assertion-type:jwt-bearer"},
		"client_assertion":      {assertion},
		"scope":                 {graphScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL(c.directoryTenantID), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", apperr.ErrTransientIO, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", apperr.ErrAuth, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", apperr.ErrAuth, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", apperr.ErrAuth)
	}
	return body.AccessToken, nil
}

func (c *certTokenSource) ForceRefresh(ctx context.Context) (string, error) {
	return c.Token(ctx)
}

func (c *certTokenSource) signAssertion() (string, error) {
	signingKey := jose.SigningKey{Algorithm: jose.RS256, Key: c.material.privateKey}
	x5t := x5tHeader(c.material.certDER)

	signer, err := jose.NewSigner(signingKey, &jose.SignerOptions{
		ExtraHeaders: map[jose.HeaderKey]any{
			"x5t": x5t,
		},
	})
	if err != nil {
		return "", fmt.Errorf("building jwt signer: %w", err)
	}

	now := time.Now()
	claims := jwt.Claims{
		Issuer:   c.clientID,
		Subject:  c.clientID,
		Audience: jwt.Audience{tokenURL(c.directoryTenantID)},
		ID:       uuid.New().String(),
		Expiry:   jwt.NewNumericDate(now.Add(5 * time.Minute)),
		IssuedAt: jwt.NewNumericDate(now),
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("signing client assertion: %w", err)
	}
	return token, nil
}
