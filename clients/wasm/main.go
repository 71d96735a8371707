//go:build js && wasm

// PixelVault WASM - Client-side hide, extract and cover generation.
// Compiled with: GOOS=js GOARCH=wasm go build -o pixelvault.wasm ./clients/wasm/
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/xob0t/PixelVault/pkg/crypt"
	"github.com/xob0t/PixelVault/pkg/generator"
	"github.com/xob0t/PixelVault/pkg/stego"
)

func main() {
	fmt.Println("PixelVault WASM loaded")

	// Register JS-callable functions.
	js.Global().Set("goHide", js.FuncOf(hide))
	js.Global().Set("goExtract", js.FuncOf(extract))
	js.Global().Set("goInspect", js.FuncOf(inspect))
	js.Global().Set("goCover", js.FuncOf(cover))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

func errorValue(format string, a ...interface{}) js.Value {
	return js.ValueOf("error: " + fmt.Sprintf(format, a...))
}

func decodeArg(v js.Value, what string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(v.String())
	if err != nil {
		return nil, fmt.Errorf("invalid base64 %s: %w", what, err)
	}
	return data, nil
}

func codecFor(encryption string) (*stego.Codec, error) {
	mode, err := crypt.ParseMode(encryption)
	if err != nil {
		return nil, err
	}
	return stego.NewCodec(stego.Options{Encryption: mode})
}

// goHide(mediumB64, secretB64, secretName, password, format, encryption) -
// return base64 of the carrier with the secret embedded.
func hide(this js.Value, args []js.Value) interface{} {
	if len(args) < 5 {
		return errorValue("need medium, secret, secretName, password, format[, encryption]")
	}
	carrier, err := decodeArg(args[0], "medium")
	if err != nil {
		return errorValue("%v", err)
	}
	secret, err := decodeArg(args[1], "secret")
	if err != nil {
		return errorValue("%v", err)
	}
	encryption := ""
	if len(args) > 5 {
		encryption = args[5].String()
	}
	codec, err := codecFor(encryption)
	if err != nil {
		return errorValue("%v", err)
	}

	out, err := codec.Hide(carrier, secret, stego.ExtensionOf(args[2].String()), args[3].String(), args[4].String())
	if err != nil {
		return errorValue("hide: %v", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(out))
}

// goExtract(mediumB64, password, encryption) - return {data, extension}.
func extract(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorValue("need medium, password[, encryption]")
	}
	carrier, err := decodeArg(args[0], "medium")
	if err != nil {
		return errorValue("%v", err)
	}
	encryption := ""
	if len(args) > 2 {
		encryption = args[2].String()
	}
	codec, err := codecFor(encryption)
	if err != nil {
		return errorValue("%v", err)
	}

	secret, err := codec.Extract(carrier, args[1].String())
	if err != nil {
		return errorValue("extract: %v", err)
	}
	return js.ValueOf(map[string]interface{}{
		"data":      base64.StdEncoding.EncodeToString(secret.Data),
		"extension": secret.Extension,
	})
}

// goInspect(mediumB64) - return the capacity report as JSON.
func inspect(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("need medium")
	}
	carrier, err := decodeArg(args[0], "medium")
	if err != nil {
		return errorValue("%v", err)
	}
	info, err := stego.Inspect(carrier)
	if err != nil {
		return errorValue("inspect: %v", err)
	}
	out, err := json.Marshal(info)
	if err != nil {
		return errorValue("encode: %v", err)
	}
	return js.ValueOf(string(out))
}

// goCover(configJSON, format) - generate and return base64 PNG or BMP.
func cover(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("need configJSON[, format]")
	}
	var cfg generator.Config
	if err := json.Unmarshal([]byte(args[0].String()), &cfg); err != nil {
		return errorValue("parse config: %v", err)
	}
	// No filesystem in the browser.
	cfg.Font = ""

	format := "png"
	if len(args) > 1 && args[1].String() != "" {
		format = args[1].String()
	}

	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, format, cfg); err != nil {
		return errorValue("generate: %v", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(buf.Bytes()))
}
