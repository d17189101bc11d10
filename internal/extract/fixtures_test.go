package extract

import (
	"fmt"
	"strings"
)

const entryPage = `<!DOCTYPE html>
<html>
<head><title>日本ダービー 出馬表 | 2025年6月1日 東京11R</title></head>
<body>
<div class="RaceList_NameBox">
  <span class="RaceNum">11R</span>
  <h1 class="RaceName">東京優駿 </h1>
  <div class="RaceData01">15:40発走 /<span> 芝2400m</span> (左 C) / 天候:晴<span class="Icon_Weather Weather01"></span><span class="Item03">/ 馬場:良</span></div>
  <div class="RaceData02"><span>2回</span><span>東京</span><span>12日目</span><span>サラ系３歳</span></div>
</div>
<table class="Shutuba_Table RaceTable01">
<thead><tr class="Header"><th>枠</th><th>馬番</th><th>馬名</th></tr></thead>
<tbody>
<tr class="HorseList" id="tr_1">
  <td class="Waku1 Txt_C"><span>1</span></td>
  <td class="Umaban1 Txt_C">1</td>
  <td class="CheckMark"></td>
  <td class="HorseInfo"><div><span class="HorseName"><a href="https://db.netkeiba.com/horse/2022105081" title="クロワデュノール">クロワデュノール</a></span></div></td>
  <td class="Barei Txt_C">牡3</td>
  <td class="Txt_C">57.0</td>
  <td class="Jockey"><a href="/jockey/01075/">北村友</a></td>
  <td class="Trainer"><span class="Label1">栗東</span><a href="/trainer/01155/">斉藤崇</a></td>
  <td class="Weight">506(+2)</td>
  <td class="Txt_R Popular"><span id="odds-1_01">2.1</span></td>
  <td class="Popular Popular_Ninki Txt_C"><span>1</span></td>
</tr>
<tr class="HorseList" id="tr_2">
  <td class="Waku2 Txt_C"><span>2</span></td>
  <td class="Umaban2 Txt_C"><span>３</span></td>
  <td class="CheckMark"></td>
  <td class="HorseInfo"><div><span class="HorseName"><a href="https://db.netkeiba.com/horse/2022104895">マスカレードボール</a></span></div></td>
  <td class="Barei Txt_C">牝3</td>
  <td class="Txt_C">55.0</td>
  <td class="Jockey">坂井</td>
  <td class="Trainer"><a href="/trainer/01137/">手塚貴</a></td>
  <td class="Weight">計不</td>
  <td class="Txt_R Popular"><span id="odds-1_03">---.-</span></td>
  <td class="Popular Popular_Ninki Txt_C"><span>**</span></td>
</tr>
<tr class="HorseList" id="tr_deco">
  <td class="Waku Txt_C"></td>
  <td class="Umaban Txt_C">0</td>
  <td class="HorseInfo"><span class="HorseName"><a href="/horse/0" title="出走取消">出走取消</a></span></td>
</tr>
<tr class="HorseList" id="tr_noname">
  <td class="Waku3 Txt_C">3</td>
  <td class="Umaban5 Txt_C">5</td>
  <td class="HorseInfo"><span class="HorseName"></span></td>
</tr>
</tbody>
</table>
</body>
</html>`

const dirtEntryPage = `<html><body>
<div class="RaceData01">20:10発走 / ダ1200m (右) / 天候:曇 / 馬場:稍重 芝スタート</div>
<div class="RaceData02"><span>大井</span></div>
<table><tr class="HorseList">
  <td class="Umaban4">4</td>
  <td class="Futan">54.5</td>
  <td>56.0</td>
  <td><span class="HorseName"><a href="/horse/2021100001/">ドンフランキー</a></span></td>
</tr></table>
</body></html>`

// historyRow renders one result row with the standard 15+ cell layout.
func historyRow(date, venue, raceName, fieldSize, odds, popularity, finish, course string) string {
	cells := []string{
		`<a href="/race/list/x/">` + date + `</a>`,
		`<a href="/race/sum/05/">` + venue + `</a>`,
		"晴", "11",
		`<a href="/race/202505021211/">` + raceName + `</a>`,
		"", fieldSize, "3", "5", odds, popularity, finish, "北村友", "57", course, "良", "", "2:23.7",
	}
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString("<td>" + c + "</td>")
	}
	b.WriteString("</tr>")
	return b.String()
}

func historyPage(tableClass string, rows ...string) string {
	return fmt.Sprintf(`<html><body>
<table class="%s">
<thead><tr><th>日付</th><th>開催</th></tr></thead>
<tbody>%s</tbody>
</table>
</body></html>`, tableClass, strings.Join(rows, "\n"))
}
