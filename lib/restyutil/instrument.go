package restyutil

import (
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(id string, contents string)
}

// DumpExchanges writes every completed request/response pair made by client
// to output, numbered in completion order. A nil output leaves the client
// untouched.
func DumpExchanges(client *resty.Client, output Output) {
	if output == nil {
		return
	}

	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
		output.Write(id, formatExchange(res))
		return nil
	})
}
