package morph

import "testing"

func TestResolveRegisteredAlias(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(Model{Alias: "client", Table: "clients", Ocrable: true}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	m, err := reg.Resolve("client")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Table != "clients" || !m.Ocrable {
		t.Fatalf("unexpected model: %+v", m)
	}
}

func TestResolveFallsBackToLiteral(t *testing.T) {
	reg := NewRegistry()

	m, err := reg.Resolve("invoices")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Table != "invoices" {
		t.Fatalf("expected literal fallback, got %+v", m)
	}
	if m.Ocrable {
		t.Fatal("fallback model must not be OCR-capable")
	}
}

func TestResolveRejectsUnsafeDiscriminator(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Resolve("clients; DROP TABLE documents"); err == nil {
		t.Fatal("expected unsafe discriminator to be rejected")
	}
	if _, err := reg.Resolve(""); err == nil {
		t.Fatal("expected empty discriminator to be rejected")
	}
}

func TestParseMap(t *testing.T) {
	reg, err := ParseMap("client=clients:ocr, invoice=invoices")
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}

	client, err := reg.Resolve("client")
	if err != nil {
		t.Fatalf("Resolve client: %v", err)
	}
	if client.Table != "clients" || !client.Ocrable {
		t.Fatalf("unexpected client model: %+v", client)
	}

	invoice, err := reg.Resolve("invoice")
	if err != nil {
		t.Fatalf("Resolve invoice: %v", err)
	}
	if invoice.Table != "invoices" || invoice.Ocrable {
		t.Fatalf("unexpected invoice model: %+v", invoice)
	}
}

func TestParseMapRejectsUnknownFlag(t *testing.T) {
	if _, err := ParseMap("client=clients:resize"); err == nil {
		t.Fatal("expected unknown flag to be rejected")
	}
}
