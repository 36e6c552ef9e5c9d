package whitelist

import (
	"net"
	"regexp"
	"sort"
	"sync"
)

var (
	lock sync.RWMutex
	ips  = map[string]*regexp.Regexp{}
)

func compile(ip string) (*regexp.Regexp, error) {
	return regexp.Compile("^" + ip + "$")
}

// Setup registers every pattern in list, "192.168.1.*" style wildcards
// are regular expressions matched against the whole host
func Setup(list []string) error {
	lock.Lock()
	defer lock.Unlock()

	for _, ip := range list {
		re, err := compile(ip)
		if err != nil {
			return err
		}
		ips[ip] = re
	}

	return nil
}

//VerifyIP check the ip is a legal ip or not, addr may carry a port
func VerifyIP(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}

	lock.RLock()
	defer lock.RUnlock()

	for _, r := range ips {
		if r.MatchString(host) {
			return true
		}
	}
	return false
}

func RegisterIP(ip string) error {
	lock.Lock()
	defer lock.Unlock()

	_, ok := ips[ip]
	if ok {
		return nil
	}

	re, err := compile(ip)
	if err != nil {
		return err
	}
	ips[ip] = re
	return nil
}

func RemoveIP(ip string) {
	lock.Lock()
	defer lock.Unlock()

	delete(ips, ip)
}

func IPList() []string {
	lock.RLock()
	defer lock.RUnlock()

	list := []string{}
	for ip := range ips {
		list = append(list, ip)
	}
	sort.Strings(list)

	return list
}

func ClearIPList() {
	lock.Lock()
	defer lock.Unlock()

	ips = map[string]*regexp.Regexp{}
}
