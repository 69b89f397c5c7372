package db

import (
	"context"

	"github.com/soaringjerry/Empatia/internal/services"
)

type seedQuestion struct {
	text    string
	options []seedOption
}

type seedOption struct {
	text  string
	score int
}

var defaultQuestions = []seedQuestion{
	{"Você já sofreu bullying?", []seedOption{
		{"Nunca", 1},
		{"Ocasionalmente, mas não me afetou profundamente", 2},
		{"Sim, e isso impactou minha autoestima ou saúde mental", 3},
	}},
	{"Você já presenciou alguém sofrendo bullying?", []seedOption{
		{"Nunca", 1},
		{"Sim, e tentei intervir ou ajudar", 3},
		{"Sim, mas não soube como agir", 2},
	}},
	{"Como você reage ao ver uma situação de bullying?", []seedOption{
		{"Ignoro ou evito me envolver", 1},
		{"Busco ajuda de um adulto ou autoridade", 3},
		{"Defendo a vítima diretamente", 2},
	}},
	{"Você já praticou bullying?", []seedOption{
		{"Nunca", 3},
		{"Já participei indiretamente (como risadas)", 2},
		{"Sim, mas me arrependo hoje", 1},
	}},
	{"Na sua escola/trabalho, há ações contra bullying?", []seedOption{
		{"Sim, e são eficazes", 3},
		{"Existem, mas não são divulgadas", 2},
		{"Não há iniciativas", 1},
	}},
	{"Você acha que o bullying pode causar traumas duradouros?", []seedOption{
		{"Sim, e é um problema grave", 3},
		{"Depende da situação", 2},
		{"Não, é algo passageiro", 1},
	}},
	{"Se alguém próximo fizesse bullying, você interviria?", []seedOption{
		{"Sim, diretamente", 3},
		{"Conversaria em privado", 2},
		{"Não me envolveria", 1},
	}},
	{"Você já foi excluído de grupos ou atividades?", []seedOption{
		{"Nunca", 1},
		{"Ocasionalmente", 2},
		{"Frequentemente", 3},
	}},
	{"Como você descreve o ambiente onde vive/trabalha/estuda?", []seedOption{
		{"Respeitoso e inclusivo", 3},
		{"Há conflitos, mas são raros", 2},
		{"Hostil e competitivo", 1},
	}},
	{"Você busca aprender sobre empatia e respeito?", []seedOption{
		{"Sim, constantemente", 3},
		{"Às vezes, quando necessário", 2},
		{"Não vejo necessidade", 1},
	}},
}

var defaultSchools = []services.School{
	{Name: "Escola Estadual Professor Doutor José Augusto Lopes Borges", Category: services.CategoryPublic, Region: "SP", District: "Butantã"},
	{Name: "Colégio Bandeirantes", Category: services.CategoryPrivate, Region: "SP", District: "Morumbi"},
	{Name: "Escola Estadual Professor Carlos Alberto de Oliveira", Category: services.CategoryPublic, Region: "SP", District: "Ipiranga"},
	{Name: "Colégio Dante Alighieri", Category: services.CategoryPrivate, Region: "SP", District: "Cerqueira César"},
	{Name: "Escola Municipal Professor Lourenço Filho", Category: services.CategoryPublic, Region: "SP", District: "Tatuapé"},
	{Name: "Colégio Santa Cruz", Category: services.CategoryPrivate, Region: "SP", District: "Alto de Pinheiros"},
	{Name: "Escola Estadual Professor Antônio Maria Moura", Category: services.CategoryPublic, Region: "SP", District: "Vila Mariana"},
	{Name: "Colégio Vértice", Category: services.CategoryPrivate, Region: "SP", District: "Campo Belo"},
	{Name: "Escola Municipal Professor Anísio Teixeira", Category: services.CategoryPublic, Region: "SP", District: "Jardim Ângela"},
	{Name: "Colégio Magno", Category: services.CategoryPrivate, Region: "SP", District: "Jardim Marajoara"},
	{Name: "Fundação Escola de Comércio Álvares Penteado", Category: services.CategoryPrivate, Region: "SP", District: "Liberdade"},
	{Name: "Colégio Santo Inácio", Category: services.CategoryPrivate, Region: "RJ", District: "Botafogo"},
	{Name: "Escola Municipal Francis Hime", Category: services.CategoryPublic, Region: "RJ", District: "Jacarepaguá"},
	{Name: "Colégio pH", Category: services.CategoryPrivate, Region: "RJ", District: "Leblon"},
	{Name: "Escola Estadual Orsina da Fonseca", Category: services.CategoryPublic, Region: "RJ", District: "Tijuca"},
	{Name: "Colégio Cruzeiro", Category: services.CategoryPrivate, Region: "RJ", District: "Centro"},
	{Name: "Escola Municipal Pernambuco", Category: services.CategoryPublic, Region: "RJ", District: "Higienópolis"},
	{Name: "Colégio São Bento", Category: services.CategoryPrivate, Region: "RJ", District: "Centro"},
	{Name: "Escola Estadual Professor Augusto Ruschi", Category: services.CategoryPublic, Region: "RJ", District: "Tijuca"},
	{Name: "Colégio Mopi", Category: services.CategoryPrivate, Region: "RJ", District: "Tijuca"},
	{Name: "Escola Municipal Chile", Category: services.CategoryPublic, Region: "RJ", District: "Copacabana"},
}

// DefaultQuestionCount is the size of the built-in questionnaire.
var DefaultQuestionCount = len(defaultQuestions)

// DefaultSchoolCount is the size of the built-in school directory.
var DefaultSchoolCount = len(defaultSchools)

// Seed loads the built-in questionnaire and school directory into empty tables.
// Tables that already hold rows are left untouched.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	if err := s.seedQuestions(ctx); err != nil {
		return err
	}
	return s.seedSchools(ctx)
}

func (s *SQLiteStore) seedQuestions(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(ctx, "begin question seed", err)
	}
	defer func() { _ = tx.Rollback() }()
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM questions`); err != nil {
		return s.fail(ctx, "counting questions", err)
	}
	if n > 0 {
		return nil
	}
	for i, q := range defaultQuestions {
		res, err := tx.ExecContext(ctx, `INSERT INTO questions(text, position) VALUES (?, ?)`, q.text, i+1)
		if err != nil {
			return s.fail(ctx, "seeding question", err)
		}
		qid, err := res.LastInsertId()
		if err != nil {
			return s.fail(ctx, "seeding question", err)
		}
		for _, o := range q.options {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO answer_options(question_id, text, score) VALUES (?, ?, ?)`, qid, o.text, o.score); err != nil {
				return s.fail(ctx, "seeding answer option", err)
			}
		}
	}
	return s.fail(ctx, "commit question seed", tx.Commit())
}

func (s *SQLiteStore) seedSchools(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(ctx, "begin school seed", err)
	}
	defer func() { _ = tx.Rollback() }()
	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM schools`); err != nil {
		return s.fail(ctx, "counting schools", err)
	}
	if n > 0 {
		return nil
	}
	for _, sc := range defaultSchools {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO schools(name, category, region, district) VALUES (:name, :category, :region, :district)`, sc); err != nil {
			return s.fail(ctx, "seeding school", err)
		}
	}
	return s.fail(ctx, "commit school seed", tx.Commit())
}

// DefaultQuestions returns the built-in catalog with positional ids, for stores
// that do not persist it.
func DefaultQuestions() []services.Question {
	out := make([]services.Question, 0, len(defaultQuestions))
	var optID int64
	for i, q := range defaultQuestions {
		qid := int64(i + 1)
		question := services.Question{ID: qid, Text: q.text, Order: i + 1}
		for _, o := range q.options {
			optID++
			question.Options = append(question.Options, services.AnswerOption{ID: optID, QuestionID: qid, Text: o.text, Score: o.score})
		}
		out = append(out, question)
	}
	return out
}

// DefaultSchools returns the built-in school directory with positional ids.
func DefaultSchools() []services.School {
	out := make([]services.School, len(defaultSchools))
	for i, sc := range defaultSchools {
		sc.ID = int64(i + 1)
		out[i] = sc
	}
	return out
}
