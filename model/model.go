// Package model 离线构建混合推荐依赖的召回数据：
//   - 协同过滤：用户 x 商品评分矩阵上的截断 SVD（TrainSVD），向量写入 recall.StoreMFAdapter
//   - 内容相似：名称/类目/品牌/规格组合文本的 TF-IDF（BuildTFIDF），写入 recall.StoreContentAdapter
//   - 热门榜：按评分次数排序（Popularity），作为未知用户的兜底
//
// Rebuilder 把三者与商品元数据一起写入存储，并原子替换进程内 Catalog。
package model
