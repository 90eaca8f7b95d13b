package model

import (
	"math"
	"strings"
	"unicode"

	"github.com/rushteam/hybridrec/catalog"
)

// 组合文本中各字段的重复次数：名称最重要，其次是类目，再次是品牌。
const (
	nameWeight     = 5
	categoryWeight = 4
	brandWeight    = 2
)

// CombinedText 返回商品用于内容相似度的组合文本。
func CombinedText(p catalog.Product) string {
	var b strings.Builder
	repeat := func(s string, n int) {
		if s == "" {
			return
		}
		for i := 0; i < n; i++ {
			b.WriteString(s)
			b.WriteByte(' ')
		}
	}
	repeat(p.Name, nameWeight)
	repeat(p.Category, categoryWeight)
	repeat(p.Brand, brandWeight)
	b.WriteString(p.Specs)
	return b.String()
}

// Tokenize 小写化并按非字母数字切分，丢弃单字符 token 与英文停用词。
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// BuildTFIDF 计算每个商品组合文本的 TF-IDF 权重，结果按 L2 归一化，
// 两个向量的点积即余弦相似度。
//
// idf = ln((1+n)/(1+df)) + 1，与常见 TF-IDF 实现的平滑方式一致。
// 没有任何有效 token 的商品得到空向量。
func BuildTFIDF(products []catalog.Product) map[string]map[string]float64 {
	// 1. 词频
	tfs := make(map[string]map[string]float64, len(products))
	df := make(map[string]int)
	for _, p := range products {
		tf := make(map[string]float64)
		for _, tok := range Tokenize(CombinedText(p)) {
			tf[tok]++
		}
		for tok := range tf {
			df[tok]++
		}
		tfs[p.ID] = tf
	}

	// 2. idf
	n := float64(len(tfs))
	idf := make(map[string]float64, len(df))
	for tok, d := range df {
		idf[tok] = math.Log((1+n)/(1+float64(d))) + 1
	}

	// 3. 加权并归一化
	out := make(map[string]map[string]float64, len(tfs))
	for id, tf := range tfs {
		var norm float64
		for tok, c := range tf {
			w := c * idf[tok]
			tf[tok] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for tok := range tf {
				tf[tok] /= norm
			}
		}
		out[id] = tf
	}
	return out
}

var englishStopWords = func() map[string]struct{} {
	words := strings.Fields(`
a about above across after afterwards again against all almost alone along already also
although always am among amongst amount an and another any anyhow anyone anything anyway
anywhere are around as at back be became because become becomes becoming been before
beforehand behind being below beside besides between beyond both bottom but by call can
cannot could de describe detail do done down due during each eg either else elsewhere
empty enough etc even ever every everyone everything everywhere except few fill find
first for former formerly from front full further get give go had has hasnt have he
hence her here hereafter hereby herein hereupon hers herself him himself his how however
ie if in inc indeed interest into is it its itself keep last latter latterly least less
ltd made many may me meanwhile might mill mine more moreover most mostly move much must
my myself name namely neither never nevertheless next no nobody none noone nor not
nothing now nowhere of off often on once only onto or other others otherwise our ours
ourselves out over own part per perhaps please put rather re same see seem seemed
seeming seems serious several she should show side since sincere so some somehow
someone something sometime sometimes somewhere still such system take than that the
their them themselves then thence there thereafter thereby therefore therein thereupon
these they thick thin third this those though through throughout thru thus to together
too top toward towards un under until up upon us very via was we well were what whatever
when whence whenever where whereafter whereas whereby wherein whereupon wherever whether
which while whither who whoever whole whom whose why will with within without would yet
you your yours yourself yourselves`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
