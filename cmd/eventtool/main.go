// eventtool 在 JSON 和 Kafka 通知消息 (protobuf 二进制) 之间互相转换, 用于排查通知投递。
//
//	echo '{"recipients":[2,3],"event":{"type":"post.published","post_id":1,"author_id":1}}' | eventtool -mode encode -out hex
//	echo '0a1c...' | eventtool -mode decode -in hex
package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go-blog/internal/event"
)

type envelopeJSON struct {
	Recipients []uint          `json:"recipients"`
	Event      json.RawMessage `json:"event"`
}

func main() {
	mode := flag.String("mode", "encode", "Mode: 'encode' or 'decode'")
	inputFormat := flag.String("in", "hex", "Input format for decode: 'hex' or 'base64'")
	outputFormat := flag.String("out", "hex", "Output format for encode: 'hex' or 'base64'")
	flag.Parse()

	inputData, err := io.ReadAll(os.Stdin)
	if err != nil {
		fail("Error reading stdin: %v", err)
	}
	input := strings.TrimSpace(string(inputData))

	var out string
	switch *mode {
	case "encode":
		out, err = encode(input, *outputFormat)
	case "decode":
		out, err = decode(input, *inputFormat)
	default:
		err = fmt.Errorf("invalid mode %q, use 'encode' or 'decode'", *mode)
	}
	if err != nil {
		fail("%v", err)
	}
	fmt.Println(out)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// JSON -> 二进制信封
func encode(input, outputFormat string) (string, error) {
	var in envelopeJSON
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("invalid envelope JSON: %w", err)
	}
	e, err := event.ParsePostPublished(in.Event)
	if err != nil {
		return "", err
	}
	payload, err := e.JSON()
	if err != nil {
		return "", err
	}
	data, err := event.MarshalEnvelope(event.Envelope{Recipients: in.Recipients, Payload: payload})
	if err != nil {
		return "", err
	}

	switch outputFormat {
	case "hex":
		return hex.EncodeToString(data), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(data), nil
	default:
		return "", fmt.Errorf("invalid output format %q, use 'hex' or 'base64'", outputFormat)
	}
}

// 二进制信封 -> JSON
func decode(input, inputFormat string) (string, error) {
	var data []byte
	var err error
	switch inputFormat {
	case "hex":
		data, err = hex.DecodeString(input)
	case "base64":
		data, err = base64.StdEncoding.DecodeString(input)
	default:
		return "", fmt.Errorf("invalid input format %q, use 'hex' or 'base64'", inputFormat)
	}
	if err != nil {
		return "", fmt.Errorf("error decoding input (%s): %w", inputFormat, err)
	}

	env, err := event.UnmarshalEnvelope(data)
	if err != nil {
		return "", err
	}
	if _, err := event.ParsePostPublished(env.Payload); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(envelopeJSON{Recipients: env.Recipients, Event: env.Payload}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
