// x402test is a manual end-to-end exerciser for the Miden x402 flow: it
// funds a local account, builds and proves a P2ID payment for a price tag,
// and round-trips the resulting payload through a facilitator's /verify
// (and optionally /settle) endpoint.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"midenpay/internal/protocol"
	"midenpay/internal/x402"
	x402miden "midenpay/internal/x402/miden"
)

func main() {
	var (
		facilitatorURL = flag.String("facilitator", "http://localhost:4020", "facilitator base URL")
		payTo          = flag.String("pay-to", "0xaabbccddeeff00112233aabbccddee", "recipient account id (hex)")
		sender         = flag.String("from", "0x0b50cc0489f8f1101e946691aa89ca", "sender account id (hex)")
		amount         = flag.Uint64("amount", 1_000_000, "amount in smallest unit")
		trusted        = flag.Bool("trusted", false, "use trusted_facilitator privacy mode")
		settle         = flag.Bool("settle", false, "also call /settle after /verify")
	)
	flag.Parse()

	senderID, err := protocol.AccountIDFromHex(*sender)
	if err != nil {
		log.Fatalf("parse sender: %v", err)
	}
	recipientID, err := protocol.AccountIDFromHex(*payTo)
	if err != nil {
		log.Fatalf("parse recipient: %v", err)
	}

	token := x402miden.TestnetUSDC()
	requirements := x402miden.PriceTag(recipientID, token.Amount(*amount))
	required, err := x402.NewPaymentRequired("x402test-demo", requirements)
	if err != nil {
		log.Fatalf("build 402 body: %v", err)
	}

	// Local client with a funded vault standing in for a synced wallet.
	client := protocol.NewClient(senderID, 100, protocol.Word{})
	client.Fund(token.Faucet, *amount*2)
	signer := x402miden.NewTransactionSigner(client)

	mode := x402.PrivacyModePublic
	if *trusted {
		mode = x402.PrivacyModeTrustedFacilitator
	}
	assembler := x402miden.NewAssembler(signer, mode)

	candidates := assembler.Accept(required)
	if len(candidates) == 0 {
		log.Fatal("no signable candidates in 402 response")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	payload, err := candidates[0].Sign(ctx)
	if err != nil {
		log.Fatalf("sign payment: %v", err)
	}
	fmt.Printf("payment proved: tx=%s mode=%s\n", payload.Payload.TransactionID, payload.Payload.PrivacyMode)

	verifyReq := x402.VerifyRequest{
		X402Version:         x402.Version,
		PaymentPayload:      payload,
		PaymentRequirements: requirements,
	}

	status, body := post(ctx, *facilitatorURL+"/verify", verifyReq)
	fmt.Printf("verify: %d %s\n", status, body)

	if *settle {
		status, body = post(ctx, *facilitatorURL+"/settle", verifyReq)
		fmt.Printf("settle: %d %s\n", status, body)
	}
}

func post(ctx context.Context, url string, body any) (int, string) {
	raw, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, string(respBody)
}
