package channel_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/chardrv/internal/domain/channel"
)

func Example() {
	ch, err := channel.New(8)
	if err != nil {
		panic(err)
	}

	s := ch.Open()
	n, _ := s.Write(strings.NewReader("hello, world"), 12)
	fmt.Println("accepted:", n)

	_, err = s.Write(strings.NewReader("!"), 1)
	fmt.Println("full:", errors.Is(err, channel.ErrBufferFull))

	var out bytes.Buffer
	s.Read(&out, 5)
	s.Read(&out, 5)
	fmt.Printf("read: %q\n", out.String())
	s.Release()

	out.Reset()
	again := ch.Open()
	again.Read(&out, 2)
	fmt.Printf("after release: %q\n", out.String())
	again.Release()

	// Output:
	// accepted: 8
	// full: true
	// read: "hello, w"
	// after release: "he"
}
