package geoip

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"github.com/ReNchi-Z/inconigto-vpn/internal/logger"
)

var (
	countryReader *geoip2.Reader
	asnReader     *geoip2.Reader
	once          sync.Once
	initErr       error
)

// Init loads the MMDB files. Both paths are optional. Without a country
// database annotation is skipped entirely, even when an ASN database is
// loaded; without an ASN database labels carry only the country code.
func Init(countryPath, asnPath string) error {
	once.Do(func() {
		if countryPath != "" {
			var err error
			countryReader, err = geoip2.Open(countryPath)
			if err != nil {
				initErr = fmt.Errorf("failed to open country DB at %s: %w", countryPath, err)
				return
			}
		}
		if asnPath != "" {
			var err error
			asnReader, err = geoip2.Open(asnPath)
			if err != nil {
				// Country data still works without ASN; keep going.
				logger.Log.Warnf("Failed to open ASN DB at %s: %v. ASN data will be missing.", asnPath, err)
			}
		}
	})
	return initErr
}

// Annotate returns a short "CC/AS-org" label for an IP-literal destination,
// or "" when lookups are disabled or the host is a domain name. Sessions use
// it to enrich their log line; it never fails a connection.
func Annotate(host string) string {
	if countryReader == nil {
		return ""
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}

	label := "XX"
	if c, err := countryReader.Country(ip); err == nil && c.Country.IsoCode != "" {
		label = c.Country.IsoCode
	}
	if asnReader != nil {
		if asn, err := asnReader.ASN(ip); err == nil && asn.AutonomousSystemOrganization != "" {
			label += "/" + asn.AutonomousSystemOrganization
		}
	}
	return label
}

func Close() {
	if countryReader != nil {
		countryReader.Close()
	}
	if asnReader != nil {
		asnReader.Close()
	}
}
