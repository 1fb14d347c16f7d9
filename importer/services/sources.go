package services

import "fmt"

// Source declares one legacy table file: where it lands in staging, which
// columns are projected, and whether a missing file aborts the job. Legacy
// deployments vary in which auxiliary files they export, so only the core
// tables are required.
type Source struct {
	File     string   // expected upper-case legacy filename
	Table    string   // staging table, fully replaced on every run
	Columns  []string // lower-cased source columns, in source order
	Required bool
	Entity   string // label used in logs and the reconciliation report
}

// Slot column families of the denormalized sales/orders records. Each record
// inlines up to 7 product lines as parallel columns.
const SlotCount = 7

func slotColumns(prefix ...string) []string {
	var cols []string
	for _, p := range prefix {
		for i := 1; i <= SlotCount; i++ {
			cols = append(cols, fmt.Sprintf("%s%d", p, i))
		}
	}
	return cols
}

func transactionColumns(keyColumn string) []string {
	cols := []string{keyColumn, "data", "vendedor", "cliente", "formpag", "total", "desconto"}
	return append(cols, slotColumns("prod", "qtd", "unit", "totitem")...)
}

// ImportSources is the full manifest, in load order. Master data before
// transactions, transactions before histories.
var ImportSources = []Source{
	{
		File:     "GRUPO.DBF",
		Table:    "legacy_grupo",
		Columns:  []string{"codigo", "descricao"},
		Required: true,
		Entity:   "product_groups",
	},
	{
		File:     "PRODUTO.DBF",
		Table:    "legacy_produto",
		Columns:  []string{"codigo", "descricao", "grupo", "unidade", "precocusto", "precovenda", "estoque", "estminimo", "ativo"},
		Required: true,
		Entity:   "products",
	},
	{
		File:     "CLIENTES.DBF",
		Table:    "legacy_clientes",
		Columns:  []string{"codigo", "nome", "endereco", "cidade", "uf", "cep", "fone", "cpfcnpj", "limite", "datacad", "ativo"},
		Required: true,
		Entity:   "customers",
	},
	{
		File:     "VENDEDOR.DBF",
		Table:    "legacy_vendedor",
		Columns:  []string{"codigo", "nome", "comissao", "ativo"},
		Required: true,
		Entity:   "sellers",
	},
	{
		File:     "FORMPAG.DBF",
		Table:    "legacy_formpag",
		Columns:  []string{"codigo", "descricao", "parcelas", "intervalo"},
		Required: false,
		Entity:   "payment_terms",
	},
	{
		File:     "VENDAS.DBF",
		Table:    "legacy_vendas",
		Columns:  transactionColumns("numvenda"),
		Required: true,
		Entity:   "sales",
	},
	{
		File:     "PEDIDOS.DBF",
		Table:    "legacy_pedidos",
		Columns:  transactionColumns("numped"),
		Required: false,
		Entity:   "orders",
	},
	{
		File:     "RECEBER.DBF",
		Table:    "legacy_receber",
		Columns:  []string{"cliente", "datavcto", "datapgto", "valor", "juros", "documento"},
		Required: false,
		Entity:   "customer_payments",
	},
	{
		File:     "MOVESTOQ.DBF",
		Table:    "legacy_movestoq",
		Columns:  []string{"produto", "data", "tipo", "qtd", "documento"},
		Required: false,
		Entity:   "stock_movements",
	},
}

// RequiredFiles returns the filenames that must be present after archive
// normalization for a job to proceed.
func RequiredFiles() []string {
	var files []string
	for _, src := range ImportSources {
		if src.Required {
			files = append(files, src.File)
		}
	}
	return files
}
