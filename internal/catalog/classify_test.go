package catalog

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want SpecialKind
	}{
		{"Simulação de financiamento", SpecialSimulation},
		{"SIMULAR FINANCIAMENTO", SpecialSimulation},
		{"Cadastro de corretor", SpecialBroker},
		{"Sou corretor (CRECI)", SpecialBroker},
		{"Acompanhar meu processo", SpecialProcessLookup},
		{"Status do processo", SpecialProcessLookup},
		{"Anunciar imóvel para venda ou locação", SpecialRental},
		{"Quero vender meu imóvel", SpecialRental},
		{"Perguntas frequentes", SpecialFAQ},
		{"FAQ", SpecialFAQ},
		{"Dúvidas", SpecialFAQ},
		{"Falar com atendente", SpecialHuman},
		{"Atendimento humano", SpecialHuman},
		{"Lançamentos", SpecialNone},
		{"Aluguel", SpecialNone},
		{"", SpecialNone},
	}
	for _, tt := range tests {
		if got := Classify(tt.name); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSpecialKindString(t *testing.T) {
	tests := []struct {
		kind SpecialKind
		want string
	}{
		{SpecialSimulation, "simulation"},
		{SpecialBroker, "broker"},
		{SpecialProcessLookup, "process-lookup"},
		{SpecialRental, "rental"},
		{SpecialFAQ, "faq"},
		{SpecialHuman, "human"},
		{SpecialNone, "none"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
