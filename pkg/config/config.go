package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jhoicas/facturador-afip/internal/domain"
	"github.com/jhoicas/facturador-afip/pkg/afip"
)

// Ambientes de ejecución seleccionados por --dev / --prod.
const (
	EnvDev  = "dev"  // homologación AFIP
	EnvProd = "prod" // producción AFIP
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	AFIP   AFIPConfig
	Issuer IssuerConfig
	Member MemberDefaults
	DB     DBConfig
}

// AppConfig configuración general.
type AppConfig struct {
	Env      string // development, production (formato de logs)
	LogLevel string
}

// AFIPConfig credenciales y endpoints de ambos ambientes AFIP.
type AFIPConfig struct {
	CUIT         string
	SellingPoint int
	PrivateKey   string // ruta a la llave privada PEM
	CertPassword string // contraseña del .p12 (si el certificado es .p12)
	CacheDir     string // tickets de acceso WSAA

	CertHomo    string
	URLWSAAHomo string
	URLWSFEHomo string
	PDFDirHomo  string

	CertProd    string
	URLWSAAProd string
	URLWSFEProd string
	PDFDirProd  string
}

// IssuerConfig datos del membrete impreso en el PDF.
type IssuerConfig struct {
	Name          string
	Letterhead1   string
	Letterhead2   string
	CUITLegend    string
	IIBB          string
	IVACondition  string
	ActivityStart string
	LogoPath      string
}

// MemberDefaults datos fijos de las facturas a socios.
type MemberDefaults struct {
	Address         string
	City            string
	ZipCode         string
	Province        string
	ItemDescription string
}

// DBConfig registro opcional de comprobantes autorizados (vacío = deshabilitado).
type DBConfig struct {
	DatabaseURL string
}

// AFIPEnvironment configuración explícita de un ambiente, construida una vez al iniciar.
type AFIPEnvironment struct {
	Name         string
	CUIT         string
	SellingPoint int
	Certificate  string
	PrivateKey   string
	CertPassword string
	URLWSAA      string
	URLWSFE      string
	CacheDir     string
	PDFDir       string
	Demo         bool // leyenda de demostración en el PDF
}

// Environment selecciona credenciales y endpoints para "dev" o "prod".
func (c *Config) Environment(name string) (AFIPEnvironment, error) {
	env := AFIPEnvironment{
		Name:         name,
		CUIT:         c.AFIP.CUIT,
		SellingPoint: c.AFIP.SellingPoint,
		PrivateKey:   c.AFIP.PrivateKey,
		CertPassword: c.AFIP.CertPassword,
		CacheDir:     c.AFIP.CacheDir,
	}
	switch name {
	case EnvDev:
		env.Certificate = c.AFIP.CertHomo
		env.URLWSAA = c.AFIP.URLWSAAHomo
		env.URLWSFE = c.AFIP.URLWSFEHomo
		env.PDFDir = c.AFIP.PDFDirHomo
		env.Demo = true
	case EnvProd:
		env.Certificate = c.AFIP.CertProd
		env.URLWSAA = c.AFIP.URLWSAAProd
		env.URLWSFE = c.AFIP.URLWSFEProd
		env.PDFDir = c.AFIP.PDFDirProd
	default:
		return AFIPEnvironment{}, fmt.Errorf("%w: ambiente desconocido %q (usar dev o prod)", domain.ErrConfiguration, name)
	}
	return env, nil
}

// Validate verifica que existan los archivos de credenciales y que la CUIT sea válida.
func (e AFIPEnvironment) Validate() error {
	if e.Certificate == "" {
		return fmt.Errorf("%w: certificado de %s no configurado", domain.ErrConfiguration, e.Name)
	}
	if _, err := os.Stat(e.Certificate); err != nil {
		return fmt.Errorf("%w: no se encuentra el certificado (%q)", domain.ErrConfiguration, e.Certificate)
	}
	// un .p12 trae la llave privada
	if !isP12(e.Certificate) {
		if e.PrivateKey == "" {
			return fmt.Errorf("%w: AFIP_PRIVATE_KEY no configurado", domain.ErrConfiguration)
		}
		if _, err := os.Stat(e.PrivateKey); err != nil {
			return fmt.Errorf("%w: no se encuentra la llave privada (%q)", domain.ErrConfiguration, e.PrivateKey)
		}
	}
	if err := afip.ValidateCUIT(e.CUIT); err != nil {
		return fmt.Errorf("%w: AFIP_CUIT: %v", domain.ErrConfiguration, err)
	}
	if e.SellingPoint <= 0 {
		return fmt.Errorf("%w: SELLING_POINT debe ser un punto de venta habilitado", domain.ErrConfiguration)
	}
	if e.URLWSAA == "" || e.URLWSFE == "" {
		return fmt.Errorf("%w: URLs de WSAA/WSFEv1 de %s no configuradas", domain.ErrConfiguration, e.Name)
	}
	return nil
}

func isP12(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx")
}

// Load lee la configuración desde .env y variables de entorno (y opcionalmente config.env).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	_ = godotenv.Load() // sin .env se usan solo las variables del proceso

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		AFIP: AFIPConfig{
			CUIT:         getString(v, "AFIP_CUIT", ""),
			SellingPoint: getInt(v, "SELLING_POINT", 0),
			PrivateKey:   getString(v, "AFIP_PRIVATE_KEY", ""),
			CertPassword: getString(v, "AFIP_CERT_PASSWORD", ""),
			CacheDir:     getString(v, "AFIP_CACHE_DIR", "/tmp/afip-cache"),

			CertHomo:    getString(v, "AFIP_CERTIFICATE_HOMO", ""),
			URLWSAAHomo: getString(v, "URL_WSAA_HOMO", "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"),
			URLWSFEHomo: getString(v, "URL_WSFEV1_HOMO", "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"),
			PDFDirHomo:  getString(v, "PDF_DIR_HOMO", "./pdfs/homo"),

			CertProd:    getString(v, "AFIP_CERTIFICATE_PROD", ""),
			URLWSAAProd: getString(v, "URL_WSAA_PROD", "https://wsaa.afip.gov.ar/ws/services/LoginCms"),
			URLWSFEProd: getString(v, "URL_WSFEV1_PROD", "https://servicios1.afip.gov.ar/wsfev1/service.asmx"),
			PDFDirProd:  getString(v, "PDF_DIR_PROD", "./pdfs/prod"),
		},
		Issuer: IssuerConfig{
			Name:          getString(v, "EMPRESA", ""),
			Letterhead1:   getString(v, "MEMBRETE1", ""),
			Letterhead2:   getString(v, "MEMBRETE2", ""),
			CUITLegend:    getString(v, "CUIT_LEYENDA", ""),
			IIBB:          getString(v, "IIBB", "IIBB exento"),
			IVACondition:  getString(v, "IVA_CONDICION", "IVA exento"),
			ActivityStart: getString(v, "INICIO_ACTIVIDAD", ""),
			LogoPath:      getString(v, "LOGO_PATH", ""),
		},
		Member: MemberDefaults{
			Address:         getString(v, "CLIENT_ADDRESS", ""),
			City:            getString(v, "CLIENT_CITY", ""),
			ZipCode:         getString(v, "CLIENT_ZIP", ""),
			Province:        getString(v, "CLIENT_PROVINCE", ""),
			ItemDescription: getString(v, "ITEM_DESCRIPTION", "Servicio"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
		},
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
