package handler

import (
	"fmt"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"
)

// defaultWhitelistedNetworks is used when no IPNetworkWhitelist is configured at all.
var defaultWhitelistedNetworks = []string{
	"127.0.0.0/8",    // IPv4 loopback
	"10.0.0.0/8",     // RFC1918
	"172.16.0.0/12",  // RFC1918
	"192.168.0.0/16", // RFC1918
	"169.254.0.0/16", // RFC3927 link-local
	"::1/128",        // IPv6 loopback
	"fe80::/10",      // IPv6 link-local
	"fc00::/7",       // IPv6 unique local addr
}

func checkIfRequestIsAllowed(r *http.Request, whitelistedIPBlocks *[]*net.IPNet, logger *logrus.Entry) error {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return err
	}

	userIP := net.ParseIP(ip)
	if userIP == nil {
		return fmt.Errorf("Failed to parse IP: `%s`", ip)
	}

	logger.Debugf("Checking if IP address `%s` is allowed..", userIP)

	if whitelistedIPBlocks == nil {
		// No whitelist at all means allowed.
		return nil
	}

	if !isWhitelistedIPAddress(userIP, *whitelistedIPBlocks) {
		logger.Debugf("Determined that %s is NOT allowed", userIP)
		return fmt.Errorf("Not allowed from this IP address")
	}

	return nil
}

func determineWhitelistedIPBlocks(ipNetworkWhitelist *[]string, logger *logrus.Logger) (*[]*net.IPNet, error) {
	if ipNetworkWhitelist == nil {
		// An undefined list means "all local/private addresses"
		return cidrListToBlockList(defaultWhitelistedNetworks)
	}

	// An explicitly defined empty list means "allow everything".
	if len(*ipNetworkWhitelist) == 0 {
		return nil, nil
	}

	logger.Infof("HTTP gateway will only be accessible from: %v", *ipNetworkWhitelist)

	return cidrListToBlockList(*ipNetworkWhitelist)
}

// Adapted from: https://stackoverflow.com/a/50825191
func cidrListToBlockList(cidrList []string) (*[]*net.IPNet, error) {
	var blocks []*net.IPNet

	for _, cidr := range cidrList {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("Failed parsing %q: %v", cidr, err)
		}

		blocks = append(blocks, block)
	}

	return &blocks, nil
}

func isWhitelistedIPAddress(ip net.IP, allowedNetworks []*net.IPNet) bool {
	if ip.IsLoopback() {
		return true
	}

	for _, block := range allowedNetworks {
		if block.Contains(ip) {
			return true
		}
	}

	return false
}
