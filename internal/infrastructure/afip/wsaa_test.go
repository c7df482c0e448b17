package afip

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mozilla.org/pkcs7"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

const loginTicketTmpl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<loginTicketResponse version="1.0"><header><uniqueId>1</uniqueId>
<generationTime>2024-02-05T09:50:00-03:00</generationTime>
<expirationTime>%s</expirationTime></header>
<credentials><token>TOKEN-%d</token><sign>SIGN-%d</sign></credentials></loginTicketResponse>`

func wsaaServer(t *testing.T, calls *int32, expiration string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		body, _ := io.ReadAll(r.Body)

		var env struct {
			Body struct {
				Login struct {
					In0 string `xml:"in0"`
				} `xml:"loginCms"`
			} `xml:"Body"`
		}
		require.NoError(t, xml.Unmarshal(body, &env))
		der, err := base64.StdEncoding.DecodeString(env.Body.Login.In0)
		require.NoError(t, err)
		p7, err := pkcs7.Parse(der)
		require.NoError(t, err)
		require.NoError(t, p7.Verify())
		assert.Contains(t, string(p7.Content), "<service>wsfe</service>")

		var ret strings.Builder
		require.NoError(t, xml.EscapeText(&ret, []byte(fmt.Sprintf(loginTicketTmpl, expiration, n, n))))
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>
<loginCmsResponse xmlns="http://wsaa.view.sua.dvadac.desein.afip.gov"><loginCmsReturn>%s</loginCmsReturn></loginCmsResponse>
</soapenv:Body></soapenv:Envelope>`, ret.String())
	}))
}

func TestWSAAClient_TicketIsCached(t *testing.T) {
	dir := t.TempDir()
	creds, _, _ := testCredentials(t, dir)
	var calls int32
	srv := wsaaServer(t, &calls, "2024-02-05T21:50:00-03:00")
	defer srv.Close()

	now := time.Date(2024, 2, 5, 10, 0, 0, 0, time.FixedZone("ART", -3*3600))
	store := NewFileTicketStore(filepath.Join(dir, "cache"))
	client := NewWSAAClient(srv.URL, creds, store, logger.Nop(), WithClock(func() time.Time { return now }))

	t1, err := client.Ticket(context.Background(), ServiceWSFE)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN-1", t1.Token)

	t2, err := client.Ticket(context.Background(), ServiceWSFE)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN-1", t2.Token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// un cliente nuevo reutiliza el ticket persistido
	other := NewWSAAClient(srv.URL, creds, store, logger.Nop(), WithClock(func() time.Time { return now }))
	t3, err := other.Ticket(context.Background(), ServiceWSFE)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN-1", t3.Token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWSAAClient_ExpiredTicketTriggersLogin(t *testing.T) {
	dir := t.TempDir()
	creds, _, _ := testCredentials(t, dir)
	var calls int32
	srv := wsaaServer(t, &calls, "2024-02-05T21:50:00-03:00")
	defer srv.Close()

	now := time.Date(2024, 2, 5, 10, 0, 0, 0, time.FixedZone("ART", -3*3600))
	client := NewWSAAClient(srv.URL, creds, nil, logger.Nop(), WithClock(func() time.Time { return now }))
	_, err := client.Ticket(context.Background(), ServiceWSFE)
	require.NoError(t, err)

	now = now.Add(12 * time.Hour)
	t2, err := client.Ticket(context.Background(), ServiceWSFE)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN-2", t2.Token)
}

func TestWSAAClient_Fault(t *testing.T) {
	dir := t.TempDir()
	creds, _, _ := testCredentials(t, dir)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>
<soapenv:Fault><faultcode>ns1:coe.alreadyAuthenticated</faultcode>
<faultstring>El CEE ya posee un TA valido para el acceso al WSN solicitado</faultstring></soapenv:Fault>
</soapenv:Body></soapenv:Envelope>`)
	}))
	defer srv.Close()

	client := NewWSAAClient(srv.URL, creds, nil, logger.Nop())
	_, err := client.Ticket(context.Background(), ServiceWSFE)
	require.Error(t, err)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "ns1:coe.alreadyAuthenticated", remote.Code)
	assert.ErrorIs(t, err, domain.ErrRemoteAuthorization)
}

func TestLoadCredentials_PEM(t *testing.T) {
	dir := t.TempDir()
	want, certPath, keyPath := testCredentials(t, dir)

	got, err := LoadCredentials(certPath, keyPath, "")
	require.NoError(t, err)
	assert.Equal(t, want.Certificate.SerialNumber, got.Certificate.SerialNumber)
	assert.NotNil(t, got.PrivateKey)

	_, err = LoadCredentials(filepath.Join(dir, "missing.crt"), keyPath, "")
	assert.Error(t, err)
}
